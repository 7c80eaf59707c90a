package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyShutdownTimeoutDefaults(cfg)
	applyServerDefaults(&cfg.Server)
	applyMetricsDefaults(&cfg.Metrics)
	applyAgentDefaults(&cfg.Agent)
	applySearchDefaults(&cfg.Search)
	applyDriverDefaults(cfg)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
}

// applyMetricsDefaults sets metrics defaults. Port defaults only when
// metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyAgentDefaults(cfg *AgentConfig) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:3002"
	}
	if cfg.AppName == "" {
		cfg.AppName = "multi"
	}
}

func applySearchDefaults(cfg *SearchConfig) {
	if cfg.MinDrinkPrice == 0 {
		cfg.MinDrinkPrice = 20
	}
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = 100
	}
}

// applyDriverDefaults seeds the driver sections a fresh deployment needs.
// Existing sections are left untouched; only missing ones are added.
func applyDriverDefaults(cfg *Config) {
	if cfg.Drivers == nil {
		cfg.Drivers = make(map[string]map[string]any)
	}
	if _, ok := cfg.Drivers["mongo"]; !ok {
		cfg.Drivers["mongo"] = map[string]any{
			"host":     "localhost",
			"port":     27017,
			"database": "drinkscout",
		}
	}
	if _, ok := cfg.Drivers["httpclient"]; !ok {
		cfg.Drivers["httpclient"] = map[string]any{}
	}
	if _, ok := cfg.Drivers["cachestore"]; !ok {
		cfg.Drivers["cachestore"] = map[string]any{
			"path": "/tmp/drinkscout-cache",
		}
	}
	// objectstore has no default: it requires a bucket, so it stays absent
	// until configured explicitly.
}

// GetDefaultConfig returns a Config with all default values applied.
//
// Useful for generating sample configuration files and for tests.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
