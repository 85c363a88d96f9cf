package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"scribe/internal/audio"
	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/services"
)

// DefaultMarker stands in for speech the backend could not understand.
const DefaultMarker = "..."

const defaultSegmentTimeout = 2 * time.Minute

// Recognizer is the speech-to-text capability. Implementations return
// services.ErrUnrecognized when the audio holds no decodable speech and
// services.ErrService for backend failures.
type Recognizer interface {
	Recognize(ctx context.Context, wavPath string) (string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, wavPath string) (string, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, wavPath string) (string, error) {
	return f(ctx, wavPath)
}

// Options tunes the transcriber.
type Options struct {
	Workers        int
	SegmentTimeout time.Duration
	TempDir        string
	Marker         string
}

// OptionsFromConfig extracts the transcription settings of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{
		Workers:        cfg.Transcription.Workers,
		SegmentTimeout: cfg.SegmentTimeout(),
		TempDir:        cfg.Paths.TempDir,
		Marker:         cfg.Transcription.UnintelligibleMarker,
	}
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.SegmentTimeout <= 0 {
		o.SegmentTimeout = defaultSegmentTimeout
	}
	if strings.TrimSpace(o.Marker) == "" {
		o.Marker = DefaultMarker
	}
	return o
}

// Transcriber fans segments out to a Recognizer with a bounded worker pool.
type Transcriber struct {
	recognizer Recognizer
	opts       Options
	logger     *slog.Logger
}

// New builds a transcriber from configuration.
func New(cfg *config.Config, recognizer Recognizer, logger *slog.Logger) *Transcriber {
	return NewWithOptions(OptionsFromConfig(cfg), recognizer, logger)
}

// NewWithOptions builds a transcriber with explicit options.
func NewWithOptions(opts Options, recognizer Recognizer, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		recognizer: recognizer,
		opts:       opts.withDefaults(),
		logger:     logging.NewComponentLogger(logger, "transcribe"),
	}
}

// Transcribe recognizes every segment and returns fragments in segment order.
// The returned transcript always has len(segments) fragments. An error is
// returned only when the scratch directory cannot be created, in which case
// every fragment is marked failed.
func (t *Transcriber) Transcribe(ctx context.Context, segments []audio.Segment) (Transcript, error) {
	fragments := make([]Fragment, len(segments))
	if len(segments) == 0 {
		return Transcript{Fragments: fragments}, nil
	}
	logger := logging.WithContext(ctx, t.logger)

	dir, err := os.MkdirTemp(t.opts.TempDir, "scribe-segments-")
	if err != nil {
		err = fmt.Errorf("create segment scratch dir: %w", err)
		for i := range fragments {
			fragments[i] = Fragment{Index: i, Status: StatusFailed, Err: err}
		}
		return Transcript{Fragments: fragments}, err
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logging.WarnWithContext(ctx, logger, "segment scratch dir cleanup failed", "scratch_cleanup_failed",
				logging.String("path", dir),
				logging.Error(rmErr),
				logging.String(logging.FieldImpact, "temporary audio left on disk"),
			)
		}
	}()

	workers := min(t.opts.Workers, len(segments))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fragments[i] = t.transcribeSegment(ctx, dir, i, segments[i])
			}
		}()
	}

dispatch:
	for i := range segments {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for i := range fragments {
		if fragments[i].Status == "" {
			fragments[i] = Fragment{Index: i, Status: StatusFailed, Err: ctx.Err()}
		}
	}

	transcript := Transcript{Fragments: fragments}
	recognized, unintelligible, failed := transcript.Counts()
	logger.Info("transcription complete",
		logging.Int("segments", len(segments)),
		logging.Int("recognized", recognized),
		logging.Int("unintelligible", unintelligible),
		logging.Int("failed", failed),
	)
	return transcript, nil
}

func (t *Transcriber) transcribeSegment(ctx context.Context, dir string, position int, seg audio.Segment) (frag Fragment) {
	id := uuid.NewString()
	ctx = services.WithRequestID(services.WithSegment(ctx, position), id)
	logger := logging.WithContext(ctx, t.logger)
	frag = Fragment{Index: position}
	start := time.Now()

	path := filepath.Join(dir, fmt.Sprintf("segment_%d_%s.wav", position, id))
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Debug("segment file cleanup failed", logging.String("path", path), logging.Error(err))
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("recognizer panic: %v", r)
			logging.ErrorWithContext(ctx, logger, "segment transcription panicked", "segment_panic",
				logging.Error(err),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "report this backend failure"),
			)
			frag = Fragment{Index: position, Status: StatusFailed, Err: err}
		}
	}()

	if err := seg.WriteWAV(path); err != nil {
		logging.ErrorWithContext(ctx, logger, "segment materialization failed", "segment_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check temp_dir free space and permissions"),
		)
		frag.Status = StatusFailed
		frag.Err = err
		return frag
	}

	callCtx, cancel := context.WithTimeout(ctx, t.opts.SegmentTimeout)
	defer cancel()
	text, err := t.recognizer.Recognize(callCtx, path)
	text = strings.TrimSpace(text)

	switch {
	case err == nil && text != "":
		frag.Status = StatusRecognized
		frag.Text = text
		logger.Debug("segment recognized",
			logging.Int("duration_ms", seg.DurationMS()),
			logging.Duration("elapsed", time.Since(start)),
		)
	case err == nil, errors.Is(err, services.ErrUnrecognized):
		frag.Status = StatusUnintelligible
		frag.Text = t.opts.Marker
		frag.Err = err
		logger.Info("segment unintelligible", logging.Int("duration_ms", seg.DurationMS()))
	case ctx.Err() != nil:
		frag.Status = StatusFailed
		frag.Err = ctx.Err()
		logger.Debug("segment cancelled", logging.Error(ctx.Err()))
	case errors.Is(err, context.DeadlineExceeded):
		frag.Status = StatusFailed
		frag.Err = services.Wrap(services.ErrService, "transcribe", "recognize", "segment timed out", fmt.Errorf("%w: %w", services.ErrTimeout, err))
		logging.WarnWithContext(ctx, logger, "segment recognition timed out", "segment_timeout",
			logging.Duration("timeout", t.opts.SegmentTimeout),
			logging.String(logging.FieldErrorHint, "raise transcription.segment_timeout_seconds"),
			logging.String(logging.FieldImpact, "fragment left empty"),
		)
	case errors.Is(err, services.ErrService):
		frag.Status = StatusFailed
		frag.Err = err
		logging.WarnWithContext(ctx, logger, "speech service failed for segment", "segment_service_error",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldErrorHint, "check backend credentials, quota, and connectivity"),
			logging.String(logging.FieldImpact, "fragment left empty"),
		)
	default:
		frag.Status = StatusFailed
		frag.Err = err
		logging.ErrorWithContext(ctx, logger, "segment transcription failed", "segment_unexpected_error",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
		)
	}
	return frag
}
