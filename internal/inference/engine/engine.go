package engine

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Image is an inline image attached to a message.
type Image struct {
	Bytes    []byte
	MimeType string
}

type Message struct {
	Role    string
	Content string
	Images  []Image
}

type JSONSchema struct {
	Name   string
	Schema map[string]any
	Strict bool
}

type GenerateOptions struct {
	Temperature     float64
	MaxOutputTokens int
	JSONSchema      *JSONSchema
}

// Engine performs exactly one upstream generation per call. Callers own any
// retry or repair policy.
type Engine interface {
	GenerateText(ctx context.Context, model string, messages []Message, opts GenerateOptions) (string, error)
}
