// Package ai wraps the generative-AI capabilities the analysis pipeline
// depends on: column interpretation, insight generation and two-stage
// report composition.
package ai

import "context"

// Completer is the low-level text-completion dependency. Implementations
// must be safe for concurrent use; tests substitute a fake.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
