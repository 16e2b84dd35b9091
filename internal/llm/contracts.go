package llm

import "context"

// CompletionRequest carries one prompt to a language model. Images, when
// present, are raw encoded image bytes (PNG/JPEG); clients base64 them as
// their wire format requires.
type CompletionRequest struct {
	Prompt string
	Images [][]byte
}

// Client is the language-model boundary the pipeline depends on.
// Implementations must return the model's text content; callers treat output
// that cannot be recovered into JSON as a hard failure for that call.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
