// Package config loads engine configuration from YAML with sensible
// defaults for anything unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lifeline/go-ems/internal/domain/ambulance"
	"github.com/lifeline/go-ems/internal/domain/hospital"
)

// Config is the overall application configuration.
type Config struct {
	Engine        EngineConfig        `yaml:"engine"`
	Hospital      HospitalConfig      `yaml:"hospital"`
	Risk          RiskConfig          `yaml:"risk"`
	Observability ObservabilityConfig `yaml:"observability"`
	Sim           SimConfig           `yaml:"sim"`
}

// EngineConfig tunes dispatch decisions.
type EngineConfig struct {
	TrafficFactor      float64 `yaml:"traffic_factor"`
	AvgSpeedKMH        float64 `yaml:"avg_speed_kmh"`
	ReservationMinutes int     `yaml:"reservation_minutes"`
}

// ReservationTTL returns the configured bed hold duration.
func (e EngineConfig) ReservationTTL() time.Duration {
	return time.Duration(e.ReservationMinutes) * time.Minute
}

// HospitalConfig describes the bed pools to provision. An empty pool list
// provisions the default hospital layout.
type HospitalConfig struct {
	Pools []PoolConfig `yaml:"pools"`
}

// PoolConfig is one bed pool.
type PoolConfig struct {
	Type      string   `yaml:"type"`
	Size      int      `yaml:"size"`
	IDFormat  string   `yaml:"id_format"`
	Equipment []string `yaml:"equipment"`
}

// PoolSpecs converts the configured pools into hospital pool specs.
func (h HospitalConfig) PoolSpecs() []hospital.PoolSpec {
	if len(h.Pools) == 0 {
		return hospital.DefaultPools()
	}
	specs := make([]hospital.PoolSpec, 0, len(h.Pools))
	for _, p := range h.Pools {
		specs = append(specs, hospital.PoolSpec{
			Type:      hospital.BedType(p.Type),
			Size:      p.Size,
			IDFormat:  p.IDFormat,
			Equipment: p.Equipment,
		})
	}
	return specs
}

// RiskConfig tunes the AI risk client.
type RiskConfig struct {
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	FallbackScore   float64 `yaml:"fallback_score"`
}

// ObservabilityConfig holds metrics and tracing settings.
type ObservabilityConfig struct {
	MetricsAddr  string `yaml:"metrics_addr"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Environment  string `yaml:"environment"`
}

// SimConfig tunes the dispatch simulator.
type SimConfig struct {
	Workers     int   `yaml:"workers"`
	QueueSize   int   `yaml:"queue_size"`
	Emergencies int   `yaml:"emergencies"`
	Seed        int64 `yaml:"seed"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file and fills in defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Engine.TrafficFactor <= 0 {
		c.Engine.TrafficFactor = ambulance.DefaultTrafficFactor
	}
	if c.Engine.AvgSpeedKMH <= 0 {
		c.Engine.AvgSpeedKMH = ambulance.DefaultAvgSpeedKMH
	}
	if c.Engine.ReservationMinutes <= 0 {
		c.Engine.ReservationMinutes = 30
	}
	if c.Risk.CacheTTLSeconds <= 0 {
		c.Risk.CacheTTLSeconds = 120
	}
	if c.Observability.MetricsAddr == "" {
		c.Observability.MetricsAddr = ":9090"
	}
	if c.Observability.OTLPEndpoint == "" {
		c.Observability.OTLPEndpoint = "localhost:4317"
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "development"
	}
	if c.Sim.Workers <= 0 {
		c.Sim.Workers = 8
	}
	if c.Sim.QueueSize <= 0 {
		c.Sim.QueueSize = 1024
	}
	if c.Sim.Emergencies <= 0 {
		c.Sim.Emergencies = 50
	}
}
