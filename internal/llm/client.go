// Package llm is a minimal chat-completions client for Mistral-compatible APIs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sellerdesk/internal/metrics"
	"sellerdesk/internal/retry"
)

// DefaultModel is used when a request does not name a model.
const DefaultModel = "mistral-large-latest"

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes a single chat completion call. Purpose labels the
// call in metrics and logs.
type ChatRequest struct {
	Purpose     string
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Response is the text of the first completion choice.
type Response struct {
	Text      string
	LatencyMS int64
}

// Completer produces chat completions.
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (Response, error)
}

// Options configures Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Client calls a /v1/chat/completions endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
}

// NewClient creates a client. The timeout bounds every HTTP call.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		model:      model,
		maxRetries: opts.MaxRetries,
	}
}

// Complete sends req and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (Response, error) {
	if len(req.Messages) == 0 {
		return Response{}, fmt.Errorf("chat request has no messages")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	payload := map[string]any{
		"model":       model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.JSONMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	start := time.Now()
	var text string
	err := retry.Do(ctx, retry.Options{MaxRetries: c.maxRetries, Jitter: 0.25}, func(int) error {
		var resp struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := c.doJSON(ctx, joinURL(c.baseURL, "/v1/chat/completions"), payload, &resp); err != nil {
			return err
		}
		if resp.Error != nil {
			return fmt.Errorf("chat completions error: %s", resp.Error.Message)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("chat completions returned no choices")
		}
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			return fmt.Errorf("chat completions returned empty content")
		}
		return nil
	})
	elapsed := time.Since(start)
	metrics.RecordLLMRequest(purposeLabel(req.Purpose), elapsed, err)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: text, LatencyMS: elapsed.Milliseconds()}, nil
}

func (c *Client) doJSON(ctx context.Context, endpoint string, in any, out any) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if strings.TrimSpace(c.apiKey) != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(body)), 800))
		if permanentStatus(resp.StatusCode) {
			return retry.Permanent(err)
		}
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return retry.Permanent(fmt.Errorf("failed to decode response: %w; body: %s", err, truncate(string(body), 800)))
	}
	return nil
}

// permanentStatus reports client errors that a retry cannot fix. 429 is
// left to the backoff.
func permanentStatus(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

func joinURL(base, path string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "https://api.mistral.ai"
	}
	base = strings.TrimSuffix(base, "/")
	if strings.HasSuffix(base, "/v1") && strings.HasPrefix(path, "/v1/") {
		path = strings.TrimPrefix(path, "/v1")
	}
	return base + path
}

func purposeLabel(p string) string {
	if strings.TrimSpace(p) == "" {
		return "unknown"
	}
	return p
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// StripCodeFences removes a surrounding Markdown code fence, with or without
// a language tag, from model output.
func StripCodeFences(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		tag := strings.TrimSpace(t[:nl])
		if tag == "" || !strings.ContainsAny(tag, "{[\"") {
			t = t[nl+1:]
		}
	}
	if i := strings.LastIndex(t, "```"); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}
