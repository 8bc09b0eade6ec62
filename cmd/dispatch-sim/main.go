// Package main provides the dispatch simulator entry point.
// It generates a burst of synthetic emergencies, triages them through the
// engine, and drains the queue into ambulance dispatches and bed
// reservations while exposing health and metrics endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lifeline/go-ems/internal/config"
	"github.com/lifeline/go-ems/internal/domain/hospital"
	"github.com/lifeline/go-ems/internal/domain/triage"
	"github.com/lifeline/go-ems/internal/engine"
	"github.com/lifeline/go-ems/internal/observability/metrics"
	"github.com/lifeline/go-ems/internal/observability/tracing"
	"github.com/lifeline/go-ems/pkg/riskclient"
	"github.com/lifeline/go-ems/pkg/workerpool"
)

// hospitalLoc is the receiving facility used by the simulator.
var hospitalLoc = engine.Location{Lat: 28.6139, Lon: 77.2090}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal("config load failed", zap.Error(err))
		}
		cfg = loaded
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing is best-effort: the simulator still runs without a collector.
	traceCfg := tracing.DefaultConfig("dispatch-sim")
	traceCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	traceCfg.Environment = cfg.Observability.Environment
	provider, err := tracing.Init(ctx, traceCfg)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Warn("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	m := metrics.New(nil)

	riskCfg := riskclient.DefaultConfig()
	riskCfg.CacheTTL = time.Duration(cfg.Risk.CacheTTLSeconds) * time.Second
	riskCfg.Fallback = cfg.Risk.FallbackScore
	risk, err := riskclient.New(syntheticRiskModel(cfg.Sim.Seed), riskCfg, logger)
	if err != nil {
		logger.Fatal("risk client creation failed", zap.Error(err))
	}

	beds := hospital.NewBedManager(cfg.Hospital.PoolSpecs(), logger)
	eng := engine.New(engine.Config{
		TrafficFactor:  cfg.Engine.TrafficFactor,
		AvgSpeedKMH:    cfg.Engine.AvgSpeedKMH,
		ReservationTTL: cfg.Engine.ReservationTTL(),
	}, beds, risk, m, logger)

	srv := observabilityServer(cfg.Observability.MetricsAddr, eng)
	go func() {
		logger.Info("observability server listening", zap.String("addr", cfg.Observability.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("observability server failed", zap.Error(err))
		}
	}()

	// Intake runs on the worker pool so bursts exercise queue contention.
	poolCfg := workerpool.DefaultConfig()
	poolCfg.Workers = cfg.Sim.Workers
	poolCfg.QueueSize = cfg.Sim.QueueSize
	pool, err := workerpool.New(poolCfg, func(ctx context.Context, task workerpool.Task) error {
		req, ok := task.Payload.(engine.IntakeRequest)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", task.Payload)
		}
		_, err := eng.Intake(ctx, req)
		return err
	}, logger)
	if err != nil {
		logger.Fatal("worker pool creation failed", zap.Error(err))
	}
	pool.Start()

	rng := rand.New(rand.NewSource(seedOrNow(cfg.Sim.Seed)))
	for i := 0; i < cfg.Sim.Emergencies; i++ {
		task := workerpool.Task{
			ID:      fmt.Sprintf("intake-%03d", i),
			Payload: syntheticEmergency(rng, i),
		}
		if err := pool.Submit(task); err != nil {
			logger.Warn("intake rejected", zap.String("task_id", task.ID), zap.Error(err))
		}
	}
	if err := pool.Stop(); err != nil {
		logger.Warn("intake pool drain incomplete", zap.Error(err))
	}
	stats := pool.Stats()
	logger.Info("intake complete",
		zap.Int64("submitted", stats.Submitted),
		zap.Int64("completed", stats.Completed),
		zap.Int64("failed", stats.Failed),
		zap.Int("queue_depth", eng.QueueSize()),
	)

	dispatched, admitted := drainQueue(ctx, eng, logger)
	logger.Info("simulation finished",
		zap.Int("dispatched", dispatched),
		zap.Int("admitted", admitted),
	)
	for _, av := range eng.AllBedAvailability() {
		logger.Info("bed pool",
			zap.String("bed_type", string(av.BedType)),
			zap.Int("available", av.Available),
			zap.Int("occupied", av.Occupied),
			zap.Float64("occupancy_rate", av.OccupancyRate),
		)
	}

	logger.Info("serving metrics until interrupted")
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown failed", zap.Error(err))
	}
}

// drainQueue dispatches every queued emergency and immediately confirms
// admission for the ones that got a bed.
func drainQueue(ctx context.Context, eng *engine.Engine, logger *zap.Logger) (dispatched, admitted int) {
	for {
		d, ok := eng.DispatchNext(ctx, hospitalLoc)
		if !ok {
			return dispatched, admitted
		}
		dispatched++
		if d.Reservation.Success {
			if eng.ConfirmAdmission(d.Record.EmergencyID) {
				admitted++
			}
		} else {
			logger.Warn("no bed available",
				zap.String("emergency_id", d.Record.EmergencyID),
				zap.String("bed_type", string(d.Reservation.PreferredType)),
				zap.Int("waiting_position", d.Reservation.WaitingPosition),
			)
		}
	}
}

func observabilityServer(addr string, eng *engine.Engine) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","queue_depth":%d}`, eng.QueueSize())
	})
	r.Handle("/metrics", metrics.Handler())
	return &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
}

// syntheticRiskModel stands in for the upstream deterioration model. It is
// deterministic per patient so cache hits return identical scores.
func syntheticRiskModel(seed int64) riskclient.ScoreFunc {
	base := rand.New(rand.NewSource(seedOrNow(seed)))
	return func(_ context.Context, patientID string, vitals triage.Vitals) (float64, error) {
		score := 0.1 + base.Float64()*0.3
		if vitals.Get(triage.VitalSpO2, triage.DefaultSpO2) < 90 {
			score += 0.4
		}
		if vitals.Get(triage.VitalHeartRate, triage.DefaultHeartRate) > 120 {
			score += 0.2
		}
		if score > 1.0 {
			score = 1.0
		}
		return score, nil
	}
}

func syntheticEmergency(rng *rand.Rand, n int) engine.IntakeRequest {
	symptoms := []string{
		"chest pain and sweating",
		"difficulty breathing",
		"high fever and weakness",
		"fall with suspected fracture",
		"severe abdominal pain",
		"unconscious, not responding",
	}
	vitals := triage.Vitals{
		triage.VitalAge:        float64(5 + rng.Intn(85)),
		triage.VitalHeartRate:  float64(50 + rng.Intn(100)),
		triage.VitalBPSystolic: float64(85 + rng.Intn(120)),
		triage.VitalSpO2:       float64(80 + rng.Intn(20)),
		triage.VitalBloodSugar: float64(60 + rng.Intn(300)),
	}
	history := triage.History{
		triage.HistoryCardiac:  rng.Float64() < 0.2,
		triage.HistoryDiabetes: rng.Float64() < 0.3,
	}
	return engine.IntakeRequest{
		PatientID: fmt.Sprintf("PAT-%04d", n),
		Vitals:    vitals,
		History:   history,
		Symptoms:  symptoms[rng.Intn(len(symptoms))],
		Location: engine.Location{
			Lat: hospitalLoc.Lat + (rng.Float64()-0.5)*0.4,
			Lon: hospitalLoc.Lon + (rng.Float64()-0.5)*0.4,
		},
	}
}

func seedOrNow(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}
