package segment

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"scribe/internal/audio"
	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/services"
)

// Options tunes silence detection. Durations are milliseconds; SilenceThresh
// is dBFS and must be negative.
type Options struct {
	MinSilenceLen int
	SilenceThresh float64
	KeepSilence   int
	SeekStep      int
}

// DefaultOptions mirrors the [silence] defaults of the configuration file.
func DefaultOptions() Options {
	return Options{MinSilenceLen: 300, SilenceThresh: -35, KeepSilence: 500, SeekStep: 1}
}

// OptionsFromConfig extracts the silence section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return DefaultOptions()
	}
	return Options{
		MinSilenceLen: cfg.Silence.MinSilenceLenMS,
		SilenceThresh: cfg.Silence.SilenceThreshDB,
		KeepSilence:   cfg.Silence.KeepSilenceMS,
		SeekStep:      cfg.Silence.SeekStepMS,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MinSilenceLen <= 0 {
		o.MinSilenceLen = def.MinSilenceLen
	}
	if o.SilenceThresh == 0 {
		o.SilenceThresh = def.SilenceThresh
	}
	if o.KeepSilence < 0 {
		o.KeepSilence = 0
	}
	if o.SeekStep <= 0 {
		o.SeekStep = def.SeekStep
	}
	return o
}

// NoSegmentsError reports a recording from which no speech segment could be
// isolated. It matches services.ErrNoSegments.
type NoSegmentsError struct {
	Source     string
	DurationMS int
	Silent     bool
}

func (e *NoSegmentsError) Error() string {
	reason := "no silence boundary found"
	if e.Silent {
		reason = "recording is silent throughout"
	}
	return fmt.Sprintf("no segments in %s (%d ms): %s; adjust silence thresholds", filepath.Base(e.Source), e.DurationMS, reason)
}

func (e *NoSegmentsError) Is(target error) bool {
	return target == services.ErrNoSegments
}

// Segmenter loads canonical audio and splits it at silence boundaries.
type Segmenter struct {
	opts         Options
	ffmpegBinary string
	sampleRate   int
	channels     int
	logger       *slog.Logger
}

// New constructs a Segmenter from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Segmenter {
	s := NewWithOptions(OptionsFromConfig(cfg), logger)
	if cfg != nil {
		s.ffmpegBinary = cfg.FFmpegBinary()
		s.sampleRate = cfg.Audio.SampleRate
		s.channels = cfg.Audio.Channels
	}
	return s
}

// NewWithOptions constructs a Segmenter with explicit thresholds.
func NewWithOptions(opts Options, logger *slog.Logger) *Segmenter {
	return &Segmenter{
		opts:         opts.withDefaults(),
		ffmpegBinary: "ffmpeg",
		sampleRate:   16000,
		channels:     1,
		logger:       logging.NewComponentLogger(logger, "segment"),
	}
}

// Segment decodes the canonical file at path and returns its speech segments
// in chronological order.
func (s *Segmenter) Segment(ctx context.Context, path string) ([]audio.Segment, error) {
	pcm, err := audio.Load(ctx, s.ffmpegBinary, path, s.sampleRate, s.channels)
	if err != nil {
		return nil, services.Wrap(services.ErrConversion, "segment", "decode", filepath.Base(path), err)
	}
	return s.SegmentPCM(ctx, path, pcm)
}

// SegmentPCM splits already decoded audio. source is used for error reporting.
func (s *Segmenter) SegmentPCM(ctx context.Context, source string, pcm *audio.PCM) ([]audio.Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, s.logger)
	started := time.Now()

	segments := Split(pcm, s.opts)
	if len(segments) == 0 {
		return nil, &NoSegmentsError{
			Source:     source,
			DurationMS: pcm.DurationMS(),
			Silent:     len(DetectSilence(pcm, s.opts)) > 0,
		}
	}

	logger.Info("audio segmented",
		logging.Int("segments", len(segments)),
		logging.Int("duration_ms", pcm.DurationMS()),
		logging.Int("min_silence_len_ms", s.opts.MinSilenceLen),
		logging.Float64("silence_thresh_db", s.opts.SilenceThresh),
		logging.Duration("elapsed", time.Since(started)),
	)
	return segments, nil
}
