package llmclient

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"
	"resty.dev/v3"
)

// HTTPClient is the one real Client implementation: a JSON-schema
// completion request against an OpenAI-compatible chat endpoint,
// throttled by a token-bucket limiter so a runaway orchestrator loop
// can't hammer the configured backend.
type HTTPClient struct {
	http    *resty.Client
	limiter *rate.Limiter
	model   string
}

// New builds an HTTPClient against baseURL, authenticating with apiKey
// and throttled to ratePerSec requests/second (burst of 1).
func New(baseURL, apiKey, model string, ratePerSec float64) *HTTPClient {
	return &HTTPClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Authorization", "Bearer "+apiKey),
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		model:   model,
	}
}

// Close releases the underlying HTTP client's idle connections.
func (c *HTTPClient) Close() error {
	return c.http.Close()
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message, asking for JSON output
// constrained to schema when provided, and returns the raw completion
// text.
func (c *HTTPClient) Complete(ctx context.Context, prompt string, schema []byte) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llmclient: rate limiter: %w", err)
	}

	req := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	if schema != nil {
		req.ResponseFormat = &responseFormat{Type: "json_schema", JSONSchema: schema}
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("llmclient: complete: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("llmclient: complete: status %s", resp.Status())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("llmclient: complete: empty response")
	}
	return out.Choices[0].Message.Content, nil
}
