// Package groq adapts the Groq API to domain.Provider. Groq speaks the
// OpenAI chat completions wire format, so the provider reuses the shared
// client with a different base URL. Groq rejects response_format together
// with some sampling parameters, so JSON output is enforced by instruction
// only, never by response_format.
package groq

import (
	"context"
	"net/http"

	openaiapi "github.com/actionplanner/launchkit/internal/api/openai"
	"github.com/actionplanner/launchkit/internal/config"
	"github.com/actionplanner/launchkit/internal/domain"
	"github.com/actionplanner/launchkit/internal/provider"
	openaiprovider "github.com/actionplanner/launchkit/internal/provider/openai"
)

// ProviderType is the config type string for this provider.
const ProviderType = "groq"

const defaultBaseURL = "https://api.groq.com/openai/v1"

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

// Provider implements domain.Provider against the Groq API.
type Provider struct {
	client     *openaiapi.Client
	baseURL    string
	httpClient *http.Client
}

// New creates a new Groq provider.
func New(apiKey string, opts ...ProviderOption) *Provider {
	p := &Provider{baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(p)
	}

	clientOpts := []openaiapi.ClientOption{openaiapi.WithBaseURL(p.baseURL)}
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
	apiReq := openaiprovider.ToAPIRequest(req)
	apiReq.ResponseFormat = nil

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, err
	}
	return openaiprovider.ToCanonicalResponse(resp), nil
}

// RegisterFactory registers this provider with the factory registry.
func RegisterFactory() {
	provider.RegisterFactory(provider.Factory{
		Type:        ProviderType,
		Description: "Groq API (OpenAI-compatible wire format)",
		Create: func(cfg config.ProviderConfig) (domain.Provider, error) {
			var opts []ProviderOption
			if cfg.BaseURL != "" {
				opts = append(opts, WithBaseURL(cfg.BaseURL))
			}
			return New(cfg.APIKey, opts...), nil
		},
	})
}
