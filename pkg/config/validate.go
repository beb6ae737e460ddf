package config

import (
	"errors"
	"fmt"
	"strings"

	"helmsman-ai/helmsman/pkg/providerfactory"
)

// ValidationError describes one invalid field with a remediation hint.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Field, e.Message)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Validate checks the configuration for structural problems. All errors are
// reported, not just the first.
func Validate(cfg *Config) error {
	var errs []error

	switch cfg.Strategy {
	case "least_recently_used", "lru", "lowest_latency", "random":
	default:
		errs = append(errs, &ValidationError{
			Field:   "strategy",
			Message: fmt.Sprintf("unknown strategy %q", cfg.Strategy),
			Hint:    "use least_recently_used, lowest_latency or random",
		})
	}

	if cfg.MaxRetries < 0 {
		errs = append(errs, &ValidationError{
			Field:   "max_retries",
			Message: fmt.Sprintf("cannot be negative: %d", cfg.MaxRetries),
		})
	}

	taskNames := make(map[string]bool, len(cfg.Tasks))
	for i, t := range cfg.Tasks {
		field := fmt.Sprintf("tasks[%d]", i)
		if t.Name == "" {
			errs = append(errs, &ValidationError{
				Field:   field + ".name",
				Message: "task name is required",
			})
			continue
		}
		if taskNames[t.Name] {
			errs = append(errs, &ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate task %q", t.Name),
				Hint:    "task names must be unique",
			})
		}
		taskNames[t.Name] = true
	}

	if len(cfg.Instances) == 0 {
		errs = append(errs, &ValidationError{
			Field:   "instances",
			Message: "at least one instance is required",
		})
	}

	for i, inst := range cfg.Instances {
		field := fmt.Sprintf("instances[%d]", i)

		if inst.Name == "" {
			errs = append(errs, &ValidationError{
				Field:   field + ".name",
				Message: "instance name is required",
			})
		}
		if !providerfactory.Supported(inst.Kind) {
			errs = append(errs, &ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("unknown provider kind %q", inst.Kind),
				Hint:    "supported kinds: " + strings.Join(providerfactory.SupportedKinds(), ", "),
			})
		}
		if inst.MaxConcurrent < 0 {
			errs = append(errs, &ValidationError{
				Field:   field + ".max_concurrent",
				Message: fmt.Sprintf("cannot be negative: %d", inst.MaxConcurrent),
			})
		}
		for _, task := range inst.Tasks {
			if !taskNames[task] {
				errs = append(errs, &ValidationError{
					Field:   field + ".tasks",
					Message: fmt.Sprintf("references undefined task %q", task),
					Hint:    "define the task under tasks: first",
				})
			}
		}
	}

	switch cfg.Telemetry.Usage.Backend {
	case "", "memory":
	case "sqlite":
		if cfg.Telemetry.Usage.Enabled && cfg.Telemetry.Usage.SQLitePath == "" {
			errs = append(errs, &ValidationError{
				Field:   "telemetry.usage.sqlite_path",
				Message: "required for the sqlite backend",
			})
		}
	default:
		errs = append(errs, &ValidationError{
			Field:   "telemetry.usage.backend",
			Message: fmt.Sprintf("unknown backend %q", cfg.Telemetry.Usage.Backend),
			Hint:    "use memory or sqlite",
		})
	}

	return errors.Join(errs...)
}
