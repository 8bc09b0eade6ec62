// Package riskclient consumes the upstream AI risk classifier. The
// classifier itself is opaque: callers inject a score function and the
// client adds circuit breaking, a short TTL cache per patient and a safe
// fallback, so a degraded classifier degrades severity scoring to
// vitals-only instead of blocking triage.
package riskclient

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/lifeline/go-ems/internal/domain/triage"
	"github.com/lifeline/go-ems/pkg/circuitbreaker"
)

// ScoreFunc produces an AI risk score in [0,1] for a patient's vitals.
type ScoreFunc func(ctx context.Context, patientID string, vitals triage.Vitals) (float64, error)

// Config holds client configuration.
type Config struct {
	// CacheTTL is how long a patient's score is reused before the upstream
	// is asked again.
	CacheTTL time.Duration
	// CacheCleanup is the cache janitor interval.
	CacheCleanup time.Duration
	// Fallback is the score used when the upstream fails or the circuit is
	// open. Zero means severity rests on vitals, history and age alone.
	Fallback float64
	// Breaker configures the circuit breaker around the upstream.
	Breaker circuitbreaker.Config
}

// DefaultConfig returns client defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:     2 * time.Minute,
		CacheCleanup: 5 * time.Minute,
		Fallback:     0.0,
		Breaker:      circuitbreaker.DefaultConfig("risk-upstream"),
	}
}

// Client is a guarded, cached view of the risk upstream.
type Client struct {
	fn       ScoreFunc
	breaker  *circuitbreaker.Breaker
	cache    *gocache.Cache
	fallback float64
	logger   *zap.Logger
}

// New creates a client around the given score function.
func New(fn ScoreFunc, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	if cfg.CacheCleanup <= 0 {
		cfg.CacheCleanup = DefaultConfig().CacheCleanup
	}

	breaker, err := circuitbreaker.New(cfg.Breaker, logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		fn:       fn,
		breaker:  breaker,
		cache:    gocache.New(cfg.CacheTTL, cfg.CacheCleanup),
		fallback: cfg.Fallback,
		logger:   logger,
	}, nil
}

// Score returns the AI risk score for a patient, clamped to [0,1]. Upstream
// failure is absorbed: the fallback score is returned and the failure is
// logged, never surfaced as an error, because a missing classifier must not
// stop triage. A cached score is reused within the TTL when patientID is
// non-empty.
func (c *Client) Score(ctx context.Context, patientID string, vitals triage.Vitals) float64 {
	if c.fn == nil {
		return c.fallback
	}

	if patientID != "" {
		if cached, ok := c.cache.Get(patientID); ok {
			return cached.(float64)
		}
	}

	result, err := c.breaker.Execute(ctx, func() (any, error) {
		return c.fn(ctx, patientID, vitals)
	})
	if err != nil {
		if circuitbreaker.Rejected(err) {
			c.logger.Warn("risk circuit open, using fallback score",
				zap.String("patient_id", patientID),
				zap.Float64("fallback", c.fallback))
		} else {
			c.logger.Error("risk upstream failed, using fallback score",
				zap.String("patient_id", patientID),
				zap.Error(err))
		}
		return c.fallback
	}

	score := clamp01(result.(float64))
	if patientID != "" {
		c.cache.Set(patientID, score, gocache.DefaultExpiration)
	}
	return score
}

// BreakerState exposes the circuit state for health reporting.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.CurrentState()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
