// Package summarize condenses posting descriptions with an LLM.
package summarize

import "context"

// Provider abstracts an LLM completion endpoint.
type Provider interface {
	// Complete sends prompt to the model and returns its text response.
	Complete(ctx context.Context, prompt string) (string, error)
}
