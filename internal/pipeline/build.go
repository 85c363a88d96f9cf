package pipeline

import (
	"fmt"
	"log/slog"

	"scribe/internal/config"
	"scribe/internal/convert"
	"scribe/internal/history"
	"scribe/internal/segment"
	"scribe/internal/services"
	"scribe/internal/services/llm"
	"scribe/internal/services/openaistt"
	"scribe/internal/services/whisperx"
	"scribe/internal/transcribe"
)

// NewRecognizer returns the speech-to-text backend selected by
// transcription.backend.
func NewRecognizer(cfg *config.Config) (transcribe.Recognizer, error) {
	switch cfg.Transcription.Backend {
	case config.BackendOpenAI:
		client, err := openaistt.NewClient(openaistt.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.Model,
			Language:   cfg.Transcription.Language,
			MaxRetries: 2,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BackendWhisperX:
		return whisperx.NewService(whisperx.Config{
			Model:       cfg.WhisperX.Model,
			CUDAEnabled: cfg.WhisperX.CUDAEnabled,
			VADMethod:   cfg.WhisperX.VADMethod,
			HFToken:     cfg.WhisperX.HFToken,
			Language:    cfg.Transcription.Language,
		}), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "backend", fmt.Sprintf("unknown backend %q", cfg.Transcription.Backend), nil)
	}
}

// NewSummarizer returns the LLM summarizer, or nil when no API key is set.
func NewSummarizer(cfg *config.Config) Summarizer {
	settings := cfg.GetLLM()
	if settings.APIKey == "" {
		return nil
	}
	return llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
	})
}

// Build wires the production collaborators. store may be nil when history is
// disabled. needRecognizer is false for post-step commands that never touch
// audio, so they work without speech backend credentials.
func Build(cfg *config.Config, store *history.Store, logger *slog.Logger, needRecognizer bool) (*Pipeline, error) {
	deps := Deps{
		Segmenter:  segment.New(cfg, logger),
		Summarizer: NewSummarizer(cfg),
	}
	if store != nil {
		deps.History = store
		deps.Converter = convert.New(cfg, store, logger)
	} else {
		deps.Converter = convert.New(cfg, nil, logger)
	}
	if needRecognizer {
		recognizer, err := NewRecognizer(cfg)
		if err != nil {
			return nil, err
		}
		deps.Transcriber = transcribe.New(cfg, recognizer, logger)
	}
	return New(cfg, deps, logger), nil
}
