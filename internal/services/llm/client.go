package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"scribe/internal/services"
)

const (
	defaultAttempts    = 5
	summaryTemperature = 0.2
	snippetLimit       = 160
)

// Config describes how to reach an OpenAI-compatible chat endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Referer and Title are sent as HTTP-Referer and X-Title, which
	// OpenRouter uses for attribution.
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client issues chat completion requests through the OpenAI SDK.
type Client struct {
	cfg      Config
	client   openai.Client
	attempts int
}

type settings struct {
	httpClient *http.Client
	attempts   int
}

// Option customizes a Client.
type Option func(*settings)

// WithHTTPClient overrides the HTTP client used by the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithRetryMaxAttempts bounds the total number of attempts per request,
// counting the first one. Values below one are treated as one.
func WithRetryMaxAttempts(attempts int) Option {
	return func(s *settings) {
		s.attempts = max(attempts, 1)
	}
}

// NewClient constructs a client. A missing API key is reported by the
// first request rather than here, so status output can still describe it.
func NewClient(cfg Config, opts ...Option) *Client {
	s := settings{attempts: defaultAttempts}
	for _, opt := range opts {
		opt(&s)
	}
	if s.httpClient == nil {
		timeout := 60 * time.Second
		if cfg.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		s.httpClient = &http.Client{Timeout: timeout}
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithHTTPClient(s.httpClient),
		option.WithMaxRetries(s.attempts - 1),
	}
	if base := normalizeBaseURL(cfg.BaseURL); base != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(base))
	}
	if referer := strings.TrimSpace(cfg.Referer); referer != "" {
		requestOpts = append(requestOpts, option.WithHeader("HTTP-Referer", referer))
	}
	if title := strings.TrimSpace(cfg.Title); title != "" {
		requestOpts = append(requestOpts, option.WithHeader("X-Title", title))
	}

	return &Client{
		cfg:      cfg,
		client:   openai.NewClient(requestOpts...),
		attempts: s.attempts,
	}
}

// normalizeBaseURL accepts either an API root or a full chat completions
// URL, since older configs carried the latter.
func normalizeBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/chat/completions")
	if base == "" {
		return ""
	}
	return base + "/"
}

// EmptyContentError reports a completion that carried no usable text.
type EmptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op, e.FinishReason, e.Refusal, e.Snippet)
}

// Complete issues a plain-text chat completion request and returns the
// trimmed model output.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case systemPrompt == "":
		return "", errors.New("llm complete: system prompt required")
	case userPrompt == "":
		return "", errors.New("llm complete: user prompt required")
	case strings.TrimSpace(c.cfg.APIKey) == "":
		return "", errors.New("llm complete: api key required")
	}
	params := openai.ChatCompletionNewParams{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(temperature),
	}
	return c.complete(ctx, "llm complete", params)
}

// Summarize condenses transcript text. Failures are tagged with
// services.ErrService so post-step callers can classify them.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", services.Wrap(services.ErrValidation, "summarize", "", "transcript text is empty", nil)
	}
	summary, err := c.Complete(ctx, SummaryPrompt, text, summaryTemperature)
	if err != nil {
		return "", services.Wrap(services.ErrService, "summarize", c.cfg.Model, "completion failed", err)
	}
	return summary, nil
}

// HealthCheck asks the model for a tiny JSON object to confirm the key and
// model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return errors.New("llm health: api key required")
	}
	params := openai.ChatCompletionNewParams{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(`Reply with the JSON object {"ok": true} and nothing else.`),
			openai.UserMessage("ping"),
		},
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	}
	content, err := c.complete(ctx, "llm health", params)
	if err != nil {
		return err
	}
	var reply struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &reply); err != nil {
		return fmt.Errorf("llm health: decode reply: %w", err)
	}
	if !reply.OK {
		return fmt.Errorf("llm health: unexpected reply %s", snippet(content))
	}
	return nil
}

// complete sends one request. HTTP retries happen inside the SDK; a
// completion with empty content is retried here, up to the same budget.
func (c *Client) complete(ctx context.Context, op string, params openai.ChatCompletionNewParams) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", classify(op, err)
		}
		if content, ok := firstContent(resp); ok {
			return content, nil
		}
		lastErr = emptyContent(op, resp)
	}
	if c.attempts == 1 {
		return "", lastErr
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, c.attempts, lastErr)
}

func firstContent(resp *openai.ChatCompletion) (string, bool) {
	if resp == nil {
		return "", false
	}
	for _, choice := range resp.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, true
		}
	}
	return "", false
}

func emptyContent(op string, resp *openai.ChatCompletion) error {
	out := &EmptyContentError{Op: op, Snippet: "<empty>"}
	if resp == nil {
		return out
	}
	for _, choice := range resp.Choices {
		if out.FinishReason == "" {
			out.FinishReason = strings.TrimSpace(string(choice.FinishReason))
		}
		if out.Refusal == "" {
			out.Refusal = strings.TrimSpace(choice.Message.Refusal)
		}
	}
	out.Snippet = snippet(resp.RawJSON())
	return out
}

func classify(op string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w: http %d", op, services.ErrService, apiErr.StatusCode)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// DecodeLLMJSON decodes a JSON reply, tolerating code fences and prose
// around the object.
func DecodeLLMJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	err := json.Unmarshal([]byte(trimmed), target)
	if err == nil {
		return nil
	}
	inner := extractJSONObject(trimmed)
	if inner == "" || inner == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", err, snippet(trimmed))
	}
	if err := json.Unmarshal([]byte(inner), target); err != nil {
		return fmt.Errorf("%w (payload snippet: %s)", err, snippet(inner))
	}
	return nil
}

func extractJSONObject(content string) string {
	body := strings.TrimSpace(content)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimPrefix(strings.TrimLeft(body, " \t\r\n"), "json")
		if idx := strings.LastIndex(body, "```"); idx >= 0 {
			body = body[:idx]
		}
		body = strings.TrimSpace(body)
	}
	start := strings.IndexAny(body, "{[")
	if start < 0 {
		return body
	}
	closer := "}"
	if body[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(body, closer)
	if end <= start {
		return body
	}
	return strings.TrimSpace(body[start : end+1])
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > snippetLimit {
		return string(runes[:snippetLimit]) + "..."
	}
	return clean
}
