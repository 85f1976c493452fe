package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crypto-digest-bot/internal/store"
	"crypto-digest-bot/internal/trace"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"

	defaultSystemPrompt = "You are a crypto market commentator writing for a casual social feed: warm, concise, and vivid."
)

// CompletionResult is the outcome of one completion attempt. FinishReason
// is passed through from the service unmodified so the fallback logic can
// detect truncation.
type CompletionResult struct {
	Model        string
	Text         string
	FinishReason string
}

// Client talks to an OpenRouter-compatible completion service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	maxTokens   int
	temperature float32
	system      string

	// retryBase is the first discovery backoff step; tests shrink it.
	retryBase time.Duration
}

// NewClient creates a completion client. An empty baseURL selects the
// public OpenRouter endpoint.
func NewClient(baseURL, apiKey string, cfg store.LLMConfig) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	system := cfg.System
	if system == "" {
		system = defaultSystemPrompt
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		system:      system,
		retryBase:   time.Second,
	}
}

// Complete issues a single synchronous chat completion for one model and
// prompt. Transport failures and malformed responses come back as
// *ModelError; the finish reason is never cleansed.
func (c *Client) Complete(ctx context.Context, model, prompt string) (CompletionResult, error) {
	ctx, span := trace.StartSpan(ctx, "openrouter-completion")
	defer span.End()

	body := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": c.system},
			{"role": "user", "content": prompt},
		},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}
	bb, err := json.Marshal(body)
	if err != nil {
		return CompletionResult{}, &ModelError{Model: model, Kind: KindResponse, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bb))
	if err != nil {
		return CompletionResult{}, &ModelError{Model: model, Kind: KindTransport, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CompletionResult{}, &ModelError{Model: model, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return CompletionResult{}, &ModelError{
			Model: model,
			Kind:  KindTransport,
			Err:   fmt.Errorf("http %d: %s", resp.StatusCode, string(raw)),
		}
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return CompletionResult{}, &ModelError{Model: model, Kind: KindResponse, Err: err}
	}
	if len(r.Choices) == 0 {
		return CompletionResult{}, &ModelError{Model: model, Kind: KindResponse, Err: fmt.Errorf("no choices in response")}
	}

	return CompletionResult{
		Model:        model,
		Text:         r.Choices[0].Message.Content,
		FinishReason: r.Choices[0].FinishReason,
	}, nil
}
