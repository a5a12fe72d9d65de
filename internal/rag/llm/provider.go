package llm

import "context"

// Provider sends one finished prompt to a model and returns only the
// generated text.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
