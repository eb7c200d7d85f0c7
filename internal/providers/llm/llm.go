package llm

import "context"

// Provider is the text-generation engine used for summarization.
type Provider interface {
	// Complete returns the full response for a prompt.
	Complete(ctx context.Context, prompt string) (string, error)
	Close() error
}
