package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("expected api key header")
		}
		if r.Header.Get("anthropic-version") != APIVersion {
			t.Error("expected version header")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"id": "claude-sonnet-4-5", "display_name": "Claude Sonnet 4.5"},
				{"id": "claude-haiku-4-5", "display_name": "Claude Haiku 4.5"},
			},
		})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	defer p.Close()

	models, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].ID != "claude-sonnet-4-5" || models[0].Provider != "anthropic" {
		t.Errorf("unexpected first model: %+v", models[0])
	}
}
