// Package llm abstracts the text-completion capability behind a small
// provider interface so the pipeline never depends on a concrete vendor.
package llm

import (
	"context"
)

// Message is one (role, content) pair of a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options carries the model identifier and sampling parameters for one
// call. The pipeline always uses deterministic settings (temperature 0,
// fixed seed, bounded output length).
type Options struct {
	Model       string
	Temperature float64
	Seed        int
	MaxTokens   int
}

// Provider is the interface for all LLM providers.
type Provider interface {
	// GenerateResponse submits a (system, user) pair and returns the
	// single text completion, or a transport/API error.
	GenerateResponse(ctx context.Context, systemPrompt string, userPrompt string, opts Options) (string, error)
	Name() string
}
