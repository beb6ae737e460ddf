package anthropic

import (
	"context"
	"fmt"

	"helmsman-ai/helmsman/pkg/providers"
)

// modelsResponse is the wire shape of GET /v1/models.
type modelsResponse struct {
	Data []struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
}

// ListModels returns the models the Anthropic API currently offers.
func (p *Provider) ListModels(ctx context.Context) ([]providers.ModelInfo, error) {
	url := fmt.Sprintf("%s/v1/models", p.GetConfig().BaseURL)
	headers := map[string]string{
		"x-api-key":         p.GetConfig().APIKey,
		"anthropic-version": APIVersion,
	}

	var resp modelsResponse
	if err := p.DoJSONRequest(ctx, "GET", url, nil, &resp, headers); err != nil {
		return nil, err
	}

	models := make([]providers.ModelInfo, 0, len(resp.Data))
	for _, m := range resp.Data {
		models = append(models, providers.ModelInfo{ID: m.ID, Provider: p.GetKind()})
	}
	return models, nil
}
