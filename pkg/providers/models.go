package providers

import "context"

// ModelInfo identifies one model a backend offers.
type ModelInfo struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

// ModelLister lists the models a backend currently offers. HTTP adapters
// implement it alongside Provider; callers discover support with a type
// assertion.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}
