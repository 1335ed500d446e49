package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/actionplanner/launchkit/internal/codec"
	"github.com/actionplanner/launchkit/internal/config"
	"github.com/actionplanner/launchkit/internal/domain"
	"github.com/actionplanner/launchkit/internal/provider"
	"github.com/actionplanner/launchkit/internal/tokens"
)

const (
	// strictJSONHint is appended to every system prompt when JSON output
	// is required.
	strictJSONHint = "Return STRICT JSON only. No backticks, no prose, no markdown fences."

	// retryJSONHint is appended to the user prompt on the single retry
	// after an unparseable reply.
	retryJSONHint = "Your previous reply was not valid JSON. Respond with exactly one valid JSON object and nothing else."

	// retryTemperature is used on the retry attempt. Lower temperature
	// makes the model more likely to emit clean JSON.
	retryTemperature = 0.1
)

// GenerateSpec describes one model call: where to send it and what to say.
type GenerateSpec struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	System      string
	User        string
}

// Override applies a configured per-stage override on top of the workflow's
// built-in defaults. Zero values in the override leave the default in place.
func (s GenerateSpec) Override(o config.StageConfig) GenerateSpec {
	if o.Provider != "" {
		s.Provider = o.Provider
	}
	if o.Model != "" {
		s.Model = o.Model
	}
	if o.Temperature != 0 {
		s.Temperature = o.Temperature
	}
	if o.MaxTokens != 0 {
		s.MaxTokens = o.MaxTokens
	}
	return s
}

// Runner issues model calls on behalf of stages. It enforces strict-JSON
// output by instruction, extracts the JSON object defensively, and retries
// exactly once with a stronger hint and lower temperature before failing.
// The retry is invisible to the controller.
type Runner struct {
	providers *provider.Registry
	tokens    *tokens.Registry
	logger    *slog.Logger
}

// NewRunner creates a runner over the configured providers.
func NewRunner(providers *provider.Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		providers: providers,
		tokens:    tokens.NewRegistry(),
		logger:    logger,
	}
}

// GenerateJSON runs one model call and returns the extracted JSON object,
// compacted. When out is non-nil the object is also unmarshaled into it.
func (r *Runner) GenerateJSON(ctx context.Context, spec GenerateSpec, out any) (json.RawMessage, error) {
	p, err := r.providers.Get(spec.Provider)
	if err != nil {
		return nil, err
	}

	if err := r.checkBudget(spec); err != nil {
		return nil, err
	}

	system := spec.System
	if system != "" {
		system += " "
	}
	system += strictJSONHint

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req := &domain.ChatRequest{
			Model:       spec.Model,
			Temperature: spec.Temperature,
			MaxTokens:   spec.MaxTokens,
			JSONMode:    true,
		}
		user := spec.User
		if attempt > 0 {
			user += "\n\n" + retryJSONHint
			req.Temperature = retryTemperature
		}
		req.Messages = []domain.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		}

		resp, err := p.Complete(ctx, req)
		if err != nil {
			lastErr = err
			if attempt == 0 {
				r.logger.Warn("model call failed, retrying once",
					"provider", spec.Provider, "model", spec.Model, "error", err)
				continue
			}
			break
		}

		raw, err := codec.ExtractJSONObject(resp.Content)
		if err != nil {
			lastErr = domain.NewAPIError(domain.ErrorTypeBadOutput,
				"no JSON object in model reply: %v", err)
			if attempt == 0 {
				r.logger.Warn("model reply was not JSON, retrying once",
					"provider", spec.Provider, "model", spec.Model)
				continue
			}
			break
		}

		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return nil, domain.NewAPIError(domain.ErrorTypeBadOutput,
					"model reply does not match expected shape: %v", err)
			}
		}
		return raw, nil
	}

	return nil, fmt.Errorf("generate json (%s/%s): %w", spec.Provider, spec.Model, lastErr)
}

// GenerateText runs one model call and returns the raw text content with
// markdown fences stripped. No JSON extraction and no retry.
func (r *Runner) GenerateText(ctx context.Context, spec GenerateSpec) (string, error) {
	p, err := r.providers.Get(spec.Provider)
	if err != nil {
		return "", err
	}

	if err := r.checkBudget(spec); err != nil {
		return "", err
	}

	resp, err := p.Complete(ctx, &domain.ChatRequest{
		Model:       spec.Model,
		Temperature: spec.Temperature,
		MaxTokens:   spec.MaxTokens,
		Messages: []domain.Message{
			{Role: "system", Content: spec.System},
			{Role: "user", Content: spec.User},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate text (%s/%s): %w", spec.Provider, spec.Model, err)
	}

	return codec.CleanMarkdown(resp.Content), nil
}

// checkBudget rejects prompts that cannot fit the model's context window
// alongside the requested completion budget.
func (r *Runner) checkBudget(spec GenerateSpec) error {
	promptTokens, err := r.tokens.CountText(spec.Model, spec.System+"\n"+spec.User)
	if err != nil {
		return nil // counting is best effort
	}

	window := tokens.ContextWindow(spec.Model)
	if promptTokens+spec.MaxTokens > window {
		return domain.NewAPIError(domain.ErrorTypeContextLength,
			"prompt is %d tokens; %d requested for completion exceeds the %d window of %s",
			promptTokens, spec.MaxTokens, window, spec.Model)
	}
	return nil
}
