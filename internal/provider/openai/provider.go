// Package openai adapts the OpenAI chat completions API to domain.Provider.
package openai

import (
	"context"
	"net/http"

	openaiapi "github.com/actionplanner/launchkit/internal/api/openai"
	"github.com/actionplanner/launchkit/internal/config"
	"github.com/actionplanner/launchkit/internal/domain"
	"github.com/actionplanner/launchkit/internal/provider"
)

// ProviderType is the config type string for this provider.
const ProviderType = "openai"

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// Provider implements domain.Provider against the OpenAI API.
type Provider struct {
	client     *openaiapi.Client
	baseURL    string
	httpClient *http.Client
}

// New creates a new OpenAI provider.
func New(apiKey string, opts ...ProviderOption) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}

	var clientOpts []openaiapi.ClientOption
	if p.baseURL != "" {
		clientOpts = append(clientOpts, openaiapi.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, openaiapi.WithHTTPClient(p.httpClient))
	}

	p.client = openaiapi.NewClient(apiKey, clientOpts...)
	return p
}

func (p *Provider) Name() string {
	return ProviderType
}

func (p *Provider) Complete(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, ToAPIRequest(req))
	if err != nil {
		return nil, err
	}
	return ToCanonicalResponse(resp), nil
}

// RegisterFactory registers this provider with the factory registry.
func RegisterFactory() {
	provider.RegisterFactory(provider.Factory{
		Type:        ProviderType,
		Description: "OpenAI chat completions API",
		Create: func(cfg config.ProviderConfig) (domain.Provider, error) {
			var opts []ProviderOption
			if cfg.BaseURL != "" {
				opts = append(opts, WithBaseURL(cfg.BaseURL))
			}
			return New(cfg.APIKey, opts...), nil
		},
	})
}

// ToAPIRequest converts a canonical request to the wire format.
func ToAPIRequest(req *domain.ChatRequest) *openaiapi.ChatCompletionRequest {
	messages := make([]openaiapi.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openaiapi.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	apiReq := &openaiapi.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		apiReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		apiReq.Temperature = &req.Temperature
	}
	if req.TopP > 0 {
		apiReq.TopP = &req.TopP
	}
	if req.JSONMode {
		apiReq.ResponseFormat = &openaiapi.ResponseFormat{Type: "json_object"}
	}
	return apiReq
}

// ToCanonicalResponse converts a wire response to the canonical shape.
func ToCanonicalResponse(resp *openaiapi.ChatCompletionResponse) *domain.ChatResponse {
	out := &domain.ChatResponse{
		ID:    resp.ID,
		Model: resp.Model,
		Usage: domain.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.FinishReason = resp.Choices[0].FinishReason
	}
	return out
}
