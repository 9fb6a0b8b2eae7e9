package domain

import "context"

// Completer is the single LLM call abstraction shared by the constraint
// extractor and the compatibility scorer. Local and cloud backends are
// interchangeable implementations; schemaHint, when non-empty, asks the
// backend for JSON output matching the hinted shape.
type Completer interface {
	Complete(ctx context.Context, prompt, schemaHint string) (CompletionResult, error)
}

// CompletionResult carries the raw model output and token usage.
type CompletionResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}
