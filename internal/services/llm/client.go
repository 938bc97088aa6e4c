package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"roomcheck/internal/config"
)

const (
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 20 * time.Second
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	maxErrorBody       = 2048
)

// ErrNotConfigured is returned before any request when no API key is set.
var ErrNotConfigured = errors.New("llm: api key not configured")

// Config captures the runtime settings required to talk to the oracle.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// ConfigFrom copies the [llm] section.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}
}

// Client sends chat completions to an OpenAI-compatible endpoint. Every call
// is a single attempt bounded by the client timeout.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// StatusError is a non-2xx response from the endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, e.Body)
}

// CompleteJSON asks for a JSON-object response and returns the raw content.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, "llm complete json", systemPrompt, userPrompt, true)
}

// CompleteText asks for free-form text, used for markdown reports.
func (c *Client) CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, "llm complete text", systemPrompt, userPrompt, false)
}

// HealthCheck issues a tiny JSON request to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.CompleteJSON(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

type chatRequest struct {
	Model          string            `json:"model,omitempty"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		// Some providers answer with the streaming shape even when stream=false.
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, op, systemPrompt, userPrompt string, wantJSON bool) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", fmt.Errorf("%s: user prompt required", op)
	}

	payload := chatRequest{Model: c.cfg.Model, Temperature: 0.2}
	if systemPrompt != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: userPrompt})
	if wantJSON {
		payload.Temperature = 0
		payload.ResponseFormat = map[string]string{"type": jsonResponseType}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encode body: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: http error (timeout=%s): %w", op, c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", op, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s: api error: %s", op, strings.TrimSpace(parsed.Error.Message))
	}
	for _, choice := range parsed.Choices {
		for _, content := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return trimmed, nil
			}
		}
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices", op)
	}
	first := parsed.Choices[0]
	return "", fmt.Errorf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		op, first.FinishReason, first.Message.Refusal, snippet(string(body)))
}

// DecodeLLMJSON decodes a JSON payload, tolerating code fences and prose
// around the object.
func DecodeLLMJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}
	extracted := extractObject(trimmed)
	if extracted == "" || extracted == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, snippet(trimmed))
	}
	if err := json.Unmarshal([]byte(extracted), target); err != nil {
		return fmt.Errorf("%w (extracted payload snippet: %s)", err, snippet(extracted))
	}
	return nil
}

func extractObject(content string) string {
	body := strings.TrimSpace(content)
	if rest, ok := strings.CutPrefix(body, "```"); ok {
		rest = strings.TrimLeft(rest, " \t\r\n")
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		if idx := strings.LastIndex(rest, "```"); idx >= 0 {
			rest = rest[:idx]
		}
		body = strings.TrimSpace(rest)
	}
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return body
	}
	return body[start : end+1]
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}
