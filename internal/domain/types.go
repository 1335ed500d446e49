// Package domain holds the canonical types shared across the pipeline,
// providers, storage and the HTTP surface.
package domain

import "context"

// Role identifies the function a stage performs in a pipeline.
type Role string

const (
	RoleResearcher Role = "researcher"
	RolePlanner    Role = "planner"
	RoleProducer   Role = "producer"
)

// Message is a single chat message sent to or received from a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the canonical request sent to a text-generation provider.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`

	// JSONMode asks the provider to constrain output to a single JSON
	// object, where the wire format supports it.
	JSONMode bool `json:"-"`
}

// Usage reports token consumption for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the canonical response from a text-generation provider.
// The pipeline consumes only the first choice, so the response carries a
// single content string.
type ChatResponse struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Provider is a hosted text-generation backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
