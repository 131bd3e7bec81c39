package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSimulations      = 8
	DefaultPositionSigmaKm  = 150.0
	DefaultVelocitySigmaKmS = 0.025
	DefaultDurationDays     = 365.0
	DefaultNumPoints        = 50
	DefaultTolerance        = 1e-8
	DefaultMaxIterations    = 50
	DefaultMassCacheSize    = 256
	DefaultAddr             = ":8080"
	DefaultInterceptorMass  = 500.0
	DefaultLeadTimeDays     = 700.0
)

const envPrefix = "NEODEFENSE_"

type Config struct {
	LogLevel      string           `yaml:"log_level"`
	Seed          *int64           `yaml:"seed,omitempty"`
	Propagator    PropagatorConfig `yaml:"propagator"`
	Corridor      CorridorConfig   `yaml:"corridor"`
	Deflection    DeflectionConfig `yaml:"deflection"`
	MassCacheSize int              `yaml:"mass_cache_size"`
	Server        ServerConfig     `yaml:"server"`
}

type PropagatorConfig struct {
	Mu            float64 `yaml:"mu,omitempty"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
}

type CorridorConfig struct {
	Simulations      int     `yaml:"simulations"`
	PositionSigmaKm  float64 `yaml:"position_sigma_km"`
	VelocitySigmaKmS float64 `yaml:"velocity_sigma_kms"`
	DurationDays     float64 `yaml:"duration_days"`
	NumPoints        int     `yaml:"num_points"`
	Workers          int     `yaml:"workers"`
}

type DeflectionConfig struct {
	DeltaV          float64 `yaml:"delta_v_ms"`
	InterceptorMass float64 `yaml:"interceptor_mass_kg"`
	LeadTimeDays    float64 `yaml:"lead_time_days"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Propagator: PropagatorConfig{
			Tolerance:     DefaultTolerance,
			MaxIterations: DefaultMaxIterations,
		},
		Corridor: CorridorConfig{
			Simulations:      DefaultSimulations,
			PositionSigmaKm:  DefaultPositionSigmaKm,
			VelocitySigmaKmS: DefaultVelocitySigmaKmS,
			DurationDays:     DefaultDurationDays,
			NumPoints:        DefaultNumPoints,
		},
		Deflection: DeflectionConfig{
			InterceptorMass: DefaultInterceptorMass,
			LeadTimeDays:    DefaultLeadTimeDays,
		},
		MassCacheSize: DefaultMassCacheSize,
		Server:        ServerConfig{Addr: DefaultAddr},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the engine would refuse at call time.
func (c *Config) Validate() error {
	if c.Corridor.Simulations < 1 {
		return fmt.Errorf("corridor.simulations must be >= 1, got %d", c.Corridor.Simulations)
	}
	if c.Corridor.NumPoints < 2 {
		return fmt.Errorf("corridor.num_points must be >= 2, got %d", c.Corridor.NumPoints)
	}
	if !(c.Corridor.DurationDays > 0) {
		return fmt.Errorf("corridor.duration_days must be positive, got %g", c.Corridor.DurationDays)
	}
	if c.Corridor.PositionSigmaKm < 0 || c.Corridor.VelocitySigmaKmS < 0 {
		return fmt.Errorf("corridor sigmas must be non-negative")
	}
	if !(c.Propagator.Tolerance > 0) || c.Propagator.MaxIterations < 1 {
		return fmt.Errorf("propagator tolerance and max_iterations must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from NEODEFENSE_* variables. Malformed values are
// logged and ignored.
func (c *Config) ApplyEnv(logger *slog.Logger) {
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		if _, err := ParseLevel(v); err != nil {
			logger.Warn("invalid NEODEFENSE_LOG_LEVEL value, using default", "value", v, "default", c.LogLevel)
		} else {
			c.LogLevel = v
		}
	}

	if v := os.Getenv(envPrefix + "SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			logger.Warn("invalid NEODEFENSE_SEED value, ignoring", "value", v)
		} else {
			c.Seed = &n
		}
	}

	if v := os.Getenv(envPrefix + "SIMULATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid NEODEFENSE_SIMULATIONS value, using default", "value", v, "default", c.Corridor.Simulations)
		} else {
			c.Corridor.Simulations = n
		}
	}

	if v := os.Getenv(envPrefix + "WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logger.Warn("invalid NEODEFENSE_WORKERS value, using default", "value", v, "default", c.Corridor.Workers)
		} else {
			c.Corridor.Workers = n
		}
	}

	if v := os.Getenv(envPrefix + "MASS_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid NEODEFENSE_MASS_CACHE_SIZE value, using default", "value", v, "default", c.MassCacheSize)
		} else {
			c.MassCacheSize = n
		}
	}

	if v := os.Getenv(envPrefix + "HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// ParseLevel maps a config level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
