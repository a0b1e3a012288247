// File: api/schemas/interfaces.go
package schemas

import "context"

// GenerationRequest is the payload sent to the external inference provider.
type GenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	// ImagePNG is the raw screenshot attached to the request, if any.
	ImagePNG    []byte
	MaxTokens   int
	Temperature float32
}

// VisionClient abstracts the vision-capable inference provider. The provider
// is effectively a dynamically-typed, unreliable oracle; callers must treat
// the returned text as untrusted until it parses into a validated Decision.
type VisionClient interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
