package config

import (
	"os"
	"strconv"
	"time"

	"qcgen/domain/qc"
	"qcgen/internal"
	"qcgen/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	QC         QCConfig
	Simulation SimulationConfig
	Typing     TypingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// QCConfig holds the defaults applied to QC runs
type QCConfig struct {
	DefaultTarget       float64
	DefaultCV           float64
	NumPoints           int
	DefaultDistribution qc.Distribution
	LenientDistribution bool
	PresetsFile         string
}

// SimulationConfig bounds Monte-Carlo batches
type SimulationConfig struct {
	MaxWorkers int
	MaxRuns    int
}

// TypingConfig paces the keystroke sink
type TypingConfig struct {
	StartDelay time.Duration
	KeyDelay   time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	qcConfig, err := loadQCConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load QC configuration")
	}

	config := &Config{
		Server: ServerConfig{Port: getEnvOrDefault("PORT", "8080")},
		Log:    LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")},
		QC:     *qcConfig,
		Simulation: SimulationConfig{
			MaxWorkers: getEnvIntOrDefault("SIM_MAX_WORKERS", 0),
			MaxRuns:    getEnvIntOrDefault("SIM_MAX_RUNS", 100000),
		},
		Typing: TypingConfig{
			StartDelay: getEnvDurationOrDefault("TYPE_START_DELAY", 500*time.Millisecond),
			KeyDelay:   getEnvDurationOrDefault("TYPE_KEY_DELAY", 50*time.Millisecond),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// DefaultParams builds run parameters from the configured defaults
func (c *Config) DefaultParams() qc.Params {
	p := qc.DefaultParams()
	p.Target = c.QC.DefaultTarget
	p.CV = c.QC.DefaultCV
	p.NumPoints = c.QC.NumPoints
	p.Distribution = c.QC.DefaultDistribution
	return p
}

func loadQCConfig() (*QCConfig, error) {
	lenient := getEnvBoolOrDefault("QC_LENIENT_DISTRIBUTION", false)
	dist, err := qc.ParseDistribution(getEnvOrDefault("QC_DEFAULT_DISTRIBUTION", "normal"), lenient)
	if err != nil {
		return nil, errors.ConfigInvalid("QC_DEFAULT_DISTRIBUTION: " + err.Error())
	}

	defaults := qc.DefaultParams()
	return &QCConfig{
		DefaultTarget:       getEnvFloatOrDefault("QC_DEFAULT_TARGET", defaults.Target),
		DefaultCV:           getEnvFloatOrDefault("QC_DEFAULT_CV", defaults.CV),
		NumPoints:           getEnvIntOrDefault("QC_NUM_POINTS", defaults.NumPoints),
		DefaultDistribution: dist,
		LenientDistribution: lenient,
		PresetsFile:         getEnvOrDefault("QC_PRESETS_FILE", ""),
	}, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if _, ok := internal.ParseLogLevel(config.Log.Level); !ok {
		return errors.ConfigInvalid("LOG_LEVEL must be one of error, warn, info, debug, trace")
	}
	if err := config.DefaultParams().Validate(); err != nil {
		return errors.ConfigInvalid("QC defaults are invalid: " + err.Error())
	}
	if config.Simulation.MaxWorkers < 0 {
		return errors.ConfigInvalid("SIM_MAX_WORKERS cannot be negative")
	}
	if config.Simulation.MaxRuns < 1 {
		return errors.ConfigInvalid("SIM_MAX_RUNS must be at least 1")
	}
	if config.Typing.StartDelay < 0 || config.Typing.KeyDelay < 0 {
		return errors.ConfigInvalid("typing delays cannot be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
