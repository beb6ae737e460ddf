package openai

import (
	"context"
	"fmt"
	"strings"

	"helmsman-ai/helmsman/pkg/providers"
)

// modelsResponse is the wire shape of GET /models, shared by every
// OpenAI-compatible backend.
type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// perplexityModels is the static catalog; Perplexity exposes no models
// endpoint.
var perplexityModels = []string{
	"sonar",
	"sonar-pro",
	"sonar-reasoning",
	"sonar-reasoning-pro",
	"sonar-deep-research",
}

// ListModels returns the models the backend currently offers. For the
// OpenAI API proper the catalog is narrowed to chat models; compatible
// backends return their full list.
func (p *Provider) ListModels(ctx context.Context) ([]providers.ModelInfo, error) {
	kind := p.GetKind()

	if kind == "perplexity" {
		models := make([]providers.ModelInfo, 0, len(perplexityModels))
		for _, id := range perplexityModels {
			models = append(models, providers.ModelInfo{ID: id, Provider: kind})
		}
		return models, nil
	}

	url := fmt.Sprintf("%s/models", p.GetConfig().BaseURL)

	var resp modelsResponse
	if err := p.DoJSONRequest(ctx, "GET", url, nil, &resp, p.headers()); err != nil {
		return nil, err
	}

	models := make([]providers.ModelInfo, 0, len(resp.Data))
	for _, m := range resp.Data {
		if kind == "openai" && !strings.HasPrefix(m.ID, "gpt-") {
			continue
		}
		models = append(models, providers.ModelInfo{ID: m.ID, Provider: kind})
	}
	return models, nil
}
