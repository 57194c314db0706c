package llm

import (
	"context"

	"nutriplan/internal/shared"

	"github.com/google/generative-ai-go/genai"
)

// Request describes a single schema-constrained generation call.
type Request struct {
	Prompt      string
	Schema      *genai.Schema
	Temperature float32
}

// ContentResponse contains the generated text and metadata like token usage.
// An empty Content with a nil error means the model returned an empty payload;
// callers decide what that means for their flow.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// StructuredGenerator is an interface for generating schema-constrained JSON
// from a prompt.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, req Request) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
