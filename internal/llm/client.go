package llm

import "context"

// Client defines the interface for language model invocations
type Client interface {
	// GenerateText sends a rendered prompt to the model and returns the raw text response
	GenerateText(ctx context.Context, prompt string) (string, error)
	// Close closes the client and releases resources
	Close() error
}
