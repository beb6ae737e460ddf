// Package providerfactory constructs provider adapters from configuration.
// It lives outside pkg/providers so the adapter packages can depend on the
// shared interface without forming a cycle.
package providerfactory

import (
	"fmt"
	"sort"

	"helmsman-ai/helmsman/pkg/providers"
	"helmsman-ai/helmsman/pkg/providers/anthropic"
	"helmsman-ai/helmsman/pkg/providers/openai"
	"helmsman-ai/helmsman/pkg/providers/openaicompat"
)

// New creates a provider adapter for the given backend kind.
func New(kind string, config providers.ProviderConfig) (providers.Provider, error) {
	switch kind {
	case "anthropic":
		return anthropic.NewProvider(config)
	case "openai":
		return openai.NewProvider(config)
	default:
		if openaicompat.Supported(kind) {
			return openaicompat.NewProvider(kind, config)
		}
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "kind",
			Message:  fmt.Sprintf("unknown provider kind %q (supported: %v)", kind, SupportedKinds()),
		}
	}
}

// SupportedKinds returns all recognized backend kinds, sorted.
func SupportedKinds() []string {
	kinds := append([]string{"anthropic", "openai"}, openaicompat.Kinds()...)
	sort.Strings(kinds)
	return kinds
}

// Supported reports whether kind names a recognized backend.
func Supported(kind string) bool {
	if kind == "anthropic" || kind == "openai" {
		return true
	}
	return openaicompat.Supported(kind)
}
