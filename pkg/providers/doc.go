// Package providers defines the capability interface between the dispatch
// engine and backend LLM services, plus the shared HTTP plumbing used by the
// concrete adapters.
//
// The engine depends only on the Provider interface. Each backend gets its
// own adapter package (anthropic, openai) or a preset of the OpenAI-compatible
// adapter (openaicompat), all built on HTTPProvider.
//
// Adapters perform exactly one attempt per call and surface failures through
// a typed error taxonomy (AuthError, RateLimitError, TimeoutError,
// TransportError, RejectedError, ProviderError); retry and failover decisions
// belong to the dispatch engine.
package providers
