package config

import (
	"time"

	"helmsman-ai/helmsman/pkg/telemetry/logging"
	"helmsman-ai/helmsman/pkg/telemetry/usage"
)

// Default values applied to unset fields.
const (
	DefaultStrategy    = "least_recently_used"
	DefaultMaxRetries  = 5
	DefaultCallTimeout = 60 * time.Second

	DefaultMetricsListenAddress = ":9090"
	DefaultMetricsPath          = "/metrics"

	DefaultUsageBackend    = "memory"
	DefaultUsageBufferSize = 1024
)

// ApplyDefaults fills unset fields with their defaults. Explicit zero values
// that are meaningful (admission.max_concurrent) are left alone.
func ApplyDefaults(cfg *Config) {
	if cfg.Strategy == "" {
		cfg.Strategy = DefaultStrategy
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}

	if cfg.Admission.BackoffSeed == 0 {
		cfg.Admission.BackoffSeed = time.Second
	}
	if cfg.Admission.BackoffCap == 0 {
		cfg.Admission.BackoffCap = 60 * time.Second
	}
	if cfg.Admission.Cooldown == 0 {
		cfg.Admission.Cooldown = 10 * time.Second
	}

	if cfg.Telemetry.Logging == (logging.Config{}) {
		cfg.Telemetry.Logging = logging.DefaultConfig()
	}

	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Telemetry.Usage.Backend == "" {
		cfg.Telemetry.Usage.Backend = DefaultUsageBackend
	}
	if cfg.Telemetry.Usage.BufferSize == 0 {
		cfg.Telemetry.Usage.BufferSize = DefaultUsageBufferSize
	}
	if cfg.Telemetry.Usage.Retention == (usage.RetentionPolicy{}) {
		cfg.Telemetry.Usage.Retention = usage.DefaultRetentionPolicy()
	}

	for i := range cfg.Instances {
		if cfg.Instances[i].Timeout == 0 {
			cfg.Instances[i].Timeout = DefaultCallTimeout
		}
	}
}
