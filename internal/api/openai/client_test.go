package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/actionplanner/launchkit/internal/domain"
)

func TestCreateChatCompletion(t *testing.T) {
	var gotReq ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		resp := ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: gotReq.Model,
			Choices: []Choice{{
				Message:      ChatCompletionMessage{Role: "assistant", Content: `{"ok":true}`},
				FinishReason: "stop",
			}},
			Usage: Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	temp := 0.2
	resp, err := c.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:          "llama-3.1-8b-instant",
		Messages:       []ChatCompletionMessage{{Role: "user", Content: "hi"}},
		Temperature:    &temp,
		MaxTokens:      2048,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error = %v", err)
	}

	if resp.Choices[0].Message.Content != `{"ok":true}` {
		t.Errorf("unexpected content %q", resp.Choices[0].Message.Content)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format not forwarded: %+v", gotReq.ResponseFormat)
	}
	if gotReq.MaxTokens != 2048 {
		t.Errorf("max_tokens not forwarded: %d", gotReq.MaxTokens)
	}
}

func TestCreateChatCompletion_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error","code":"rate_limit_exceeded"}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := c.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "llama-3.1-8b-instant",
		Messages: []ChatCompletionMessage{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected canonical APIError, got %T: %v", err, err)
	}
	if apiErr.Type != domain.ErrorTypeRateLimit {
		t.Errorf("error type = %v, want rate_limit", apiErr.Type)
	}
	if apiErr.HTTPStatusCode() != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", apiErr.HTTPStatusCode())
	}
}

func TestCreateChatCompletion_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := c.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "m"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestMapErrorType(t *testing.T) {
	tests := []struct {
		errType string
		errCode string
		status  int
		want    domain.ErrorType
	}{
		{"invalid_request_error", "context_length_exceeded", 400, domain.ErrorTypeContextLength},
		{"invalid_request_error", "", 400, domain.ErrorTypeInvalidRequest},
		{"authentication_error", "", 401, domain.ErrorTypeAuthentication},
		{"", "model_not_found", 404, domain.ErrorTypeNotFound},
		{"", "", 503, domain.ErrorTypeOverloaded},
		{"", "", 500, domain.ErrorTypeServer},
	}

	for _, tt := range tests {
		if got := mapErrorType(tt.errType, tt.errCode, tt.status); got != tt.want {
			t.Errorf("mapErrorType(%q, %q, %d) = %v, want %v", tt.errType, tt.errCode, tt.status, got, tt.want)
		}
	}
}
