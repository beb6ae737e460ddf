// Package config loads, validates and watches the dispatcher configuration.
//
// Configuration is YAML with ${VAR} environment substitution, so secrets
// stay out of the file:
//
//	strategy: least_recently_used
//	max_retries: 3
//	instances:
//	  - name: claude-main
//	    kind: anthropic
//	    model: claude-sonnet-4-5
//	    api_key: ${ANTHROPIC_API_KEY}
//	    tasks: [summarize]
package config

import (
	"time"

	"helmsman-ai/helmsman/pkg/telemetry/logging"
	"helmsman-ai/helmsman/pkg/telemetry/usage"
)

// Config is the root configuration.
type Config struct {
	// Strategy selects the routing strategy: least_recently_used,
	// lowest_latency or random.
	Strategy string `yaml:"strategy"`

	// MaxRetries is how many times a failed request is retried.
	MaxRetries int `yaml:"max_retries"`

	// CallTimeout bounds each individual provider call.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// TotalTimeout bounds a whole request including retries and admission
	// waits. Zero leaves the caller's context in charge.
	TotalTimeout time.Duration `yaml:"total_timeout"`

	// Admission tunes rate limit cool-downs, backoff and an optional
	// pool-wide concurrency cap on top of each instance's max_concurrent.
	Admission AdmissionConfig `yaml:"admission"`

	// Tasks defines the named tasks.
	Tasks []TaskConfig `yaml:"tasks"`

	// Instances defines the provider pool.
	Instances []InstanceConfig `yaml:"instances"`

	// Telemetry configures logging, metrics and usage accounting.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// AdmissionConfig mirrors the dispatch admission settings.
type AdmissionConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	BackoffSeed   time.Duration `yaml:"backoff_seed"`
	BackoffCap    time.Duration `yaml:"backoff_cap"`
	Cooldown      time.Duration `yaml:"cooldown"`
}

// TaskConfig defines one task and its default generation parameters.
type TaskConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

// InstanceConfig defines one provider instance.
type InstanceConfig struct {
	// Name labels the instance in logs and metrics.
	Name string `yaml:"name"`

	// Kind is the backend kind: anthropic, openai, mistral, google,
	// ollama, lmstudio, groq, cohere, togetherai or perplexity.
	Kind string `yaml:"kind"`

	// Model is the default model for this instance.
	Model string `yaml:"model"`

	// APIKey authenticates against the backend. Usually a ${VAR}
	// reference. Local backends may omit it.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the backend's default endpoint.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds HTTP calls to this backend.
	Timeout time.Duration `yaml:"timeout"`

	// Tasks lists the task names this instance serves. Empty means the
	// instance only serves untagged requests.
	Tasks []string `yaml:"tasks"`

	// MaxConcurrent caps in-flight requests on this instance. Zero means
	// unlimited. A saturated instance drops out of selection until a call
	// finishes.
	MaxConcurrent int `yaml:"max_concurrent"`

	// Enabled toggles the instance. Omitted means enabled; a disabled
	// instance registers, keeping ids stable, but never serves requests.
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled reports whether the instance takes part in routing. An omitted
// enabled field counts as true.
func (c InstanceConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TelemetryConfig groups the observability settings.
type TelemetryConfig struct {
	Logging logging.Config `yaml:"logging"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Usage   UsageConfig    `yaml:"usage"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`
	Path          string `yaml:"path"`
}

// UsageConfig configures the usage accounting sink.
type UsageConfig struct {
	Enabled bool `yaml:"enabled"`

	// Backend is memory or sqlite.
	Backend string `yaml:"backend"`

	// SQLitePath locates the database for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// BufferSize is the async recorder queue length.
	BufferSize int `yaml:"buffer_size"`

	// Retention bounds record lifetime.
	Retention usage.RetentionPolicy `yaml:"retention"`

	// DebugDir, when set, writes per-instance JSON logs under this
	// directory.
	DebugDir string `yaml:"debug_dir"`
}
