package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
strategy: lowest_latency
max_retries: 3
call_timeout: 30s
admission:
  max_concurrent: 8
tasks:
  - name: summarize
    params:
      max_tokens: 512
      temperature: 0.3
instances:
  - name: claude-main
    kind: anthropic
    model: claude-sonnet-4-5
    api_key: test-key
    tasks: [summarize]
  - name: local
    kind: ollama
    model: llama3
telemetry:
  metrics:
    enabled: true
  usage:
    enabled: true
    backend: memory
`

func TestParseValid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML), "test")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Strategy != "lowest_latency" {
		t.Errorf("expected strategy lowest_latency, got %q", cfg.Strategy)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected max_retries 3, got %d", cfg.MaxRetries)
	}
	if cfg.CallTimeout != 30*time.Second {
		t.Errorf("expected call_timeout 30s, got %s", cfg.CallTimeout)
	}
	if cfg.Admission.MaxConcurrent != 8 {
		t.Errorf("expected max_concurrent 8, got %d", cfg.Admission.MaxConcurrent)
	}
	if len(cfg.Tasks) != 1 || cfg.Tasks[0].Name != "summarize" {
		t.Fatalf("expected 1 task summarize, got %+v", cfg.Tasks)
	}
	if len(cfg.Instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(cfg.Instances))
	}
	if cfg.Instances[0].Kind != "anthropic" {
		t.Errorf("expected kind anthropic, got %q", cfg.Instances[0].Kind)
	}
	if got := cfg.Instances[0].Tasks; len(got) != 1 || got[0] != "summarize" {
		t.Errorf("expected instance tasks [summarize], got %v", got)
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
instances:
  - name: local
    kind: ollama
    model: llama3
`), "test")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Strategy != DefaultStrategy {
		t.Errorf("expected default strategy, got %q", cfg.Strategy)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("expected default max_retries, got %d", cfg.MaxRetries)
	}
	if cfg.Instances[0].Timeout != DefaultCallTimeout {
		t.Errorf("expected default instance timeout, got %s", cfg.Instances[0].Timeout)
	}
	if cfg.Telemetry.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Usage.Backend != "memory" {
		t.Errorf("expected default usage backend memory, got %q", cfg.Telemetry.Usage.Backend)
	}
}

func TestEnvSubstitution(t *testing.T) {
	t.Setenv("HELMSMAN_TEST_KEY", "secret-value")

	cfg, err := Parse([]byte(`
instances:
  - name: remote
    kind: openai
    model: gpt-4o
    api_key: ${HELMSMAN_TEST_KEY}
`), "test")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Instances[0].APIKey != "secret-value" {
		t.Errorf("expected substituted key, got %q", cfg.Instances[0].APIKey)
	}
}

func TestEnvSubstitutionMissing(t *testing.T) {
	os.Unsetenv("HELMSMAN_DEFINITELY_UNSET")

	_, err := Parse([]byte(`
instances:
  - name: remote
    kind: openai
    model: gpt-4o
    api_key: ${HELMSMAN_DEFINITELY_UNSET}
`), "test")
	if err == nil {
		t.Fatal("expected error for unset environment variable")
	}
	if !strings.Contains(err.Error(), "HELMSMAN_DEFINITELY_UNSET") {
		t.Errorf("error should name the missing variable: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown strategy",
			yaml: `
strategy: round_robin
instances:
  - {name: a, kind: ollama, model: m}
`,
			want: "strategy",
		},
		{
			name: "no instances",
			yaml: `strategy: random`,
			want: "at least one instance",
		},
		{
			name: "unknown kind",
			yaml: `
instances:
  - {name: a, kind: bedrock, model: m}
`,
			want: "unknown provider kind",
		},
		{
			name: "undefined task reference",
			yaml: `
instances:
  - {name: a, kind: ollama, model: m, tasks: [ghost]}
`,
			want: "undefined task",
		},
		{
			name: "duplicate tasks",
			yaml: `
tasks:
  - name: twice
  - name: twice
instances:
  - {name: a, kind: ollama, model: m}
`,
			want: "duplicate task",
		},
		{
			name: "sqlite backend without path",
			yaml: `
instances:
  - {name: a, kind: ollama, model: m}
telemetry:
  usage:
    enabled: true
    backend: sqlite
`,
			want: "sqlite_path",
		},
		{
			name: "negative max_retries",
			yaml: `
max_retries: -2
instances:
  - {name: a, kind: ollama, model: m}
`,
			want: "max_retries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "test")
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	_, err := Parse([]byte(`
strategy: bogus
max_retries: -1
instances:
  - {name: a, kind: nope, model: m}
`), "test")
	if err == nil {
		t.Fatal("expected validation errors")
	}

	for _, want := range []string{"strategy", "max_retries", "unknown provider kind"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected combined error to mention %q, got: %v", want, err)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Instances) != 2 {
		t.Errorf("expected 2 instances, got %d", len(cfg.Instances))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestInstanceEnabledFlag(t *testing.T) {
	cfg, err := Parse([]byte(`
total_timeout: 2m
instances:
  - name: active
    kind: ollama
    model: llama3
  - name: parked
    kind: ollama
    model: llama3
    enabled: false
`), "test")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.TotalTimeout != 2*time.Minute {
		t.Errorf("expected total_timeout 2m, got %s", cfg.TotalTimeout)
	}
	if !cfg.Instances[0].IsEnabled() {
		t.Error("omitted enabled must default to true")
	}
	if cfg.Instances[1].IsEnabled() {
		t.Error("enabled: false must disable the instance")
	}
}
