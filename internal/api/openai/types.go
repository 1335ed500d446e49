package openai

import (
	"encoding/json"
	"strings"

	"github.com/actionplanner/launchkit/internal/domain"
)

// ChatCompletionRequest is the chat completions request wire format. Groq
// speaks the same format, so both providers share these types.
type ChatCompletionRequest struct {
	Model          string                  `json:"model"`
	Messages       []ChatCompletionMessage `json:"messages"`
	Temperature    *float64                `json:"temperature,omitempty"`
	TopP           *float64                `json:"top_p,omitempty"`
	MaxTokens      int                     `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat         `json:"response_format,omitempty"`
}

// ChatCompletionMessage is a single message in a chat completion request.
type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat constrains the completion output format.
type ResponseFormat struct {
	Type string `json:"type"` // "text" or "json_object"
}

// ChatCompletionResponse is the chat completions response wire format.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one completion choice.
type Choice struct {
	Index        int                   `json:"index"`
	Message      ChatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorResponse wraps an API error.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError contains upstream error details.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// ToCanonical converts the upstream error to a canonical domain error.
func (e *APIError) ToCanonical(status int) *domain.APIError {
	return &domain.APIError{
		Type:       mapErrorType(e.Type, e.Code, status),
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: status,
	}
}

// mapErrorType maps upstream error types/codes to domain error types.
func mapErrorType(errType, errCode string, status int) domain.ErrorType {
	switch errCode {
	case "context_length_exceeded":
		return domain.ErrorTypeContextLength
	case "rate_limit_exceeded":
		return domain.ErrorTypeRateLimit
	case "invalid_api_key":
		return domain.ErrorTypeAuthentication
	case "model_not_found":
		return domain.ErrorTypeNotFound
	}

	switch {
	case strings.Contains(errType, "invalid_request"):
		return domain.ErrorTypeInvalidRequest
	case strings.Contains(errType, "authentication"):
		return domain.ErrorTypeAuthentication
	case strings.Contains(errType, "rate_limit"):
		return domain.ErrorTypeRateLimit
	}

	return domain.ErrorTypeFromStatus(status)
}

// ParseErrorResponse attempts to parse an error response from JSON.
func ParseErrorResponse(data []byte) (*APIError, error) {
	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		return nil, err
	}
	if errResp.Error == nil {
		return nil, nil
	}
	return errResp.Error, nil
}
