package openaistt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"scribe/internal/services"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.AudioModelWhisper1

// Config captures the connection settings for the transcription endpoint.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	// MaxRetries bounds the SDK's own retry loop for 408/429/5xx responses.
	MaxRetries int
}

// Client wraps the OpenAI SDK audio transcription call.
type Client struct {
	client   openai.Client
	model    openai.AudioModel
	language string
}

// Option customizes the client.
type Option func(*[]option.RequestOption)

// WithHTTPClient overrides the HTTP client used by the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *[]option.RequestOption) {
		if client != nil {
			*opts = append(*opts, option.WithHTTPClient(client))
		}
	}
}

// NewClient constructs a client. An API key is required.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "openai", "init", "api key required (set openai.api_key or OPENAI_API_KEY)", nil)
	}
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(base))
	}
	for _, opt := range opts {
		opt(&clientOpts)
	}
	model := openai.AudioModel(strings.TrimSpace(cfg.Model))
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client:   openai.NewClient(clientOpts...),
		model:    model,
		language: strings.TrimSpace(cfg.Language),
	}, nil
}

// Name identifies the backend in logs and reports.
func (c *Client) Name() string {
	return "openai"
}

// Model returns the configured transcription model.
func (c *Client) Model() string {
	return string(c.model)
}

// Recognize uploads a WAV file and returns the recognized text.
func (c *Client) Recognize(ctx context.Context, wavPath string) (string, error) {
	file, err := os.Open(wavPath)
	if err != nil {
		return "", fmt.Errorf("openai recognize: open segment: %w", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  file,
		Model: c.model,
	}
	if c.language != "" {
		params.Language = openai.String(c.language)
	}

	result, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", classify(err)
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", services.ErrUnrecognized
	}
	return text, nil
}

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := fmt.Sprintf("http %d", apiErr.StatusCode)
		return services.Wrap(services.ErrService, "openai", "transcribe", msg, err)
	}
	return services.Wrap(services.ErrService, "openai", "transcribe", "request failed", err)
}
