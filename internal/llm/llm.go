package llm

import (
	"context"
	"errors"
)

// Message is a single chat turn sent to the model.
type Message struct {
	Role    string
	Content string
}

// Client abstracts LLM providers for synthesis, extraction, and audit.
type Client interface {
	// Complete runs a blocking chat completion and returns the full content.
	Complete(ctx context.Context, messages []Message) (string, error)
	// CompleteStream runs a streaming chat completion, invoking emit for
	// each content token as it arrives. A non-nil error from emit aborts
	// the stream and is returned unchanged.
	CompleteStream(ctx context.Context, messages []Message, emit func(token string) error) (string, error)
}

// ErrUnavailable marks provider failures that exhausted retries.
var ErrUnavailable = errors.New("llm unavailable")

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM not configured")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, messages []Message) (string, error) {
	_ = ctx
	_ = messages
	return "", ErrNotConfigured
}

// CompleteStream returns ErrNotConfigured.
func (PlaceholderClient) CompleteStream(ctx context.Context, messages []Message, emit func(token string) error) (string, error) {
	_ = ctx
	_ = messages
	_ = emit
	return "", ErrNotConfigured
}
