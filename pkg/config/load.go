package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the YAML file at path, substitutes ${VAR} references from the
// environment, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	return Parse(data, path)
}

// Parse loads configuration from raw YAML. The name appears in error
// messages only.
func Parse(data []byte, name string) (*Config, error) {
	expanded, err := substituteEnv(data)
	if err != nil {
		return nil, fmt.Errorf("configuration %q: %w", name, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration %q: %w", name, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration %q is invalid: %w", name, err)
	}

	return &cfg, nil
}

// substituteEnv expands ${VAR} references. Unset variables are an error so a
// missing API key fails at startup rather than at the first provider call.
func substituteEnv(data []byte) ([]byte, error) {
	var missing []string

	out := envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envPattern.FindSubmatch(match)[1]
		val, ok := os.LookupEnv(string(name))
		if !ok {
			missing = append(missing, string(name))
			return match
		}
		return []byte(val)
	})

	if len(missing) > 0 {
		return nil, fmt.Errorf("environment variable(s) not set: %s (export them or remove the reference)",
			strings.Join(missing, ", "))
	}
	return out, nil
}
