// Package openaicompat wires OpenAI-compatible backends through the openai
// adapter. Each supported kind gets its endpoint preset; the wire format is
// identical so no separate transform layer is needed.
package openaicompat

import (
	"fmt"

	"helmsman-ai/helmsman/pkg/providers"
	"helmsman-ai/helmsman/pkg/providers/openai"
)

// Endpoint presets for backends that speak the Chat Completions protocol.
// Local backends (ollama, lmstudio) run without an API key.
var presets = map[string]preset{
	"mistral":    {baseURL: "https://api.mistral.ai/v1", requiresKey: true},
	"groq":       {baseURL: "https://api.groq.com/openai/v1", requiresKey: true},
	"togetherai": {baseURL: "https://api.together.xyz/v1", requiresKey: true},
	"perplexity": {baseURL: "https://api.perplexity.ai", requiresKey: true},
	"cohere":     {baseURL: "https://api.cohere.ai/compatibility/v1", requiresKey: true},
	"google":     {baseURL: "https://generativelanguage.googleapis.com/v1beta/openai", requiresKey: true},
	"ollama":     {baseURL: "http://localhost:11434/v1", requiresKey: false},
	"lmstudio":   {baseURL: "http://localhost:1234/v1", requiresKey: false},
}

type preset struct {
	baseURL     string
	requiresKey bool
}

// Kinds lists the backend kinds this package supports.
func Kinds() []string {
	kinds := make([]string, 0, len(presets))
	for k := range presets {
		kinds = append(kinds, k)
	}
	return kinds
}

// Supported reports whether kind has an endpoint preset.
func Supported(kind string) bool {
	_, ok := presets[kind]
	return ok
}

// NewProvider creates an adapter for the given OpenAI-compatible kind.
// The configured BaseURL, when set, overrides the preset endpoint.
func NewProvider(kind string, config providers.ProviderConfig) (providers.Provider, error) {
	p, ok := presets[kind]
	if !ok {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "kind",
			Message:  fmt.Sprintf("unsupported OpenAI-compatible kind %q", kind),
		}
	}

	if config.BaseURL == "" {
		config.BaseURL = p.baseURL
	}
	config.Kind = kind

	if p.requiresKey && config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  fmt.Sprintf("API key is required for %s", kind),
		}
	}

	return openai.NewProvider(config)
}
