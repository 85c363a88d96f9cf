package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"scribe/internal/audio"
	"scribe/internal/config"
	"scribe/internal/history"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/transcribe"
	"scribe/internal/transcript"
)

// Converter produces the canonical audio file for a source recording.
type Converter interface {
	Normalize(ctx context.Context, inputPath, outputDir, targetFormat string) (string, error)
}

// Segmenter splits canonical audio at silence boundaries.
type Segmenter interface {
	Segment(ctx context.Context, canonicalPath string) ([]audio.Segment, error)
}

// Transcriber turns segments into an aligned transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, segments []audio.Segment) (transcribe.Transcript, error)
}

// Summarizer condenses transcript text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Recorder persists run history. *history.Store satisfies it.
type Recorder interface {
	BeginRun(ctx context.Context, kind, inputDir, outputDir string) (*history.Run, error)
	RecordFile(ctx context.Context, result history.FileResult) error
	FinishRun(ctx context.Context, runID string) error
}

// Deps are the collaborators a Pipeline drives. Summarizer and History may
// be nil.
type Deps struct {
	Converter   Converter
	Segmenter   Segmenter
	Transcriber Transcriber
	Summarizer  Summarizer
	History     Recorder
}

// Pipeline runs recordings through conversion, segmentation, and transcription.
type Pipeline struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
}

// New constructs a pipeline around explicit collaborators.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// RunFile converts, segments, and transcribes audioPath, then writes
// <outputDir>/<stem>.txt. The returned result is populated even on failure.
func (p *Pipeline) RunFile(ctx context.Context, audioPath, outputDir string) (FileResult, error) {
	start := time.Now()
	result := FileResult{Source: filepath.Base(audioPath), Status: history.FileStatusFailed}
	ctx = services.WithFile(ctx, result.Source)
	logger := logging.WithContext(ctx, p.logger)

	fail := func(err error) (FileResult, error) {
		result.Err = err
		result.Elapsed = time.Since(start)
		return result, err
	}

	logger.Info("processing file", logging.String("path", audioPath))

	canonical, err := p.deps.Converter.Normalize(services.WithStage(ctx, "convert"), audioPath, p.cfg.Paths.ConvertedDir, p.cfg.Audio.TargetFormat)
	if err != nil {
		return fail(err)
	}

	segments, err := p.deps.Segmenter.Segment(services.WithStage(ctx, "segment"), canonical)
	if err != nil {
		return fail(err)
	}
	result.Segments = len(segments)

	tr, err := p.deps.Transcriber.Transcribe(services.WithStage(ctx, "transcribe"), segments)
	if err != nil {
		return fail(err)
	}
	if tr.Len() != len(segments) {
		return fail(fmt.Errorf("transcriber returned %d fragments for %d segments", tr.Len(), len(segments)))
	}
	result.Recognized, result.Unintelligible, result.FragmentFailed = tr.Counts()
	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("transcription interrupted: %w", err))
	}

	outPath := transcript.PathFor(outputDir, audioPath)
	if err := transcript.Write(outPath, tr.Text()); err != nil {
		return fail(fmt.Errorf("write transcript: %w", err))
	}

	result.OutputPath = outPath
	result.Status = history.FileStatusOK
	result.Elapsed = time.Since(start)
	logger.Info("transcript written",
		logging.String("output", outPath),
		logging.Int("segments", result.Segments),
		logging.Int("unintelligible", result.Unintelligible),
		logging.Int("fragments_failed", result.FragmentFailed),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, services.ErrNoSegments):
		return "adjust silence.silence_thresh_db or silence.min_silence_len_ms"
	case errors.Is(err, services.ErrConversion):
		return "check that the file is a readable recording and ffmpeg is installed"
	case errors.Is(err, services.ErrService):
		return "check backend credentials, quota, and connectivity"
	case errors.Is(err, services.ErrNormalization):
		return "inspect the transcript file for unexpected content"
	default:
		return "check logs for details"
	}
}
