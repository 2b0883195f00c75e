// Package llm is the boundary to the model backend. The backend is an opaque
// text-completion service: a system prompt plus the user query go in, raw
// text comes out. Whether that text contains a tool invocation is decided by
// the parser, never here.
package llm

import "context"

// Client is implemented once per provider.
type Client interface {
	// Complete sends one completion request and returns the raw text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// Name identifies the provider for logging and health reporting.
	Name() string
}
