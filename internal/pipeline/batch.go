package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"scribe/internal/fileutil"
	"scribe/internal/history"
	"scribe/internal/logging"
	"scribe/internal/services"
)

// Run kinds recorded in history.
const (
	KindBatch      = "batch"
	KindFile       = "file"
	KindWatch      = "watch"
	KindPreprocess = "preprocess"
	KindSummarize  = "summarize"
)

// Session groups file results under one run id. Batch runs, single-file runs,
// and watch mode each use one session.
type Session struct {
	p      *Pipeline
	report Report
	start  time.Time
	logger *slog.Logger
}

// BeginSession opens a run. History failures are logged and the session
// continues without persistence.
func (p *Pipeline) BeginSession(ctx context.Context, kind, inputDir, outputDir string) *Session {
	s := &Session{
		p:     p,
		start: time.Now(),
		report: Report{
			Kind:      kind,
			InputDir:  inputDir,
			OutputDir: outputDir,
			StartedAt: time.Now(),
		},
	}
	if p.deps.History != nil {
		run, err := p.deps.History.BeginRun(ctx, kind, inputDir, outputDir)
		if err != nil {
			logging.WarnWithContext(ctx, p.logger, "run history unavailable", "history_begin_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run will not appear in scribe history"),
			)
		} else {
			s.report.RunID = run.ID
		}
	}
	if s.report.RunID == "" {
		s.report.RunID = uuid.NewString()
	}
	s.logger = p.logger.With(logging.String(logging.FieldRunID, s.report.RunID))
	s.logger.Info("run started",
		logging.String("kind", kind),
		logging.String("input_dir", inputDir),
		logging.String("output_dir", outputDir),
	)
	return s
}

// RunID returns the session's run identifier.
func (s *Session) RunID() string {
	return s.report.RunID
}

// Process runs one file through the pipeline. Errors and panics are captured
// in the returned result and never propagate.
func (s *Session) Process(ctx context.Context, audioPath string) (result FileResult) {
	ctx = services.WithRunID(ctx, s.report.RunID)
	defer func() {
		if r := recover(); r != nil {
			result = FileResult{
				Source: filepath.Base(audioPath),
				Status: history.FileStatusFailed,
				Err:    fmt.Errorf("panic while processing: %v", r),
			}
			s.p.logger.Error("file pipeline panicked",
				logging.String(logging.FieldFile, result.Source),
				logging.String("stack", string(debug.Stack())),
			)
		}
		if result.Err != nil {
			logging.ErrorWithContext(ctx, logging.WithContext(ctx, s.p.logger), "file failed", "file_failed",
				logging.String(logging.FieldFile, result.Source),
				logging.Error(result.Err),
				logging.String(logging.FieldErrorKind, result.ErrorKind()),
				logging.String(logging.FieldErrorHint, errorHint(result.Err)),
			)
		}
		s.Record(ctx, result)
	}()
	result, _ = s.p.RunFile(ctx, audioPath, s.report.OutputDir)
	return result
}

// Record adds a result to the report and persists it.
func (s *Session) Record(ctx context.Context, result FileResult) {
	s.report.Files = append(s.report.Files, result)
	if s.p.deps.History == nil {
		return
	}
	if err := s.p.deps.History.RecordFile(context.WithoutCancel(ctx), result.toHistory(s.report.RunID)); err != nil {
		s.logger.Debug("record file result failed", logging.Error(err))
	}
}

// Close finishes the run and returns the report.
func (s *Session) Close(ctx context.Context) Report {
	s.report.Elapsed = time.Since(s.start)
	if s.p.deps.History != nil {
		if err := s.p.deps.History.FinishRun(context.WithoutCancel(ctx), s.report.RunID); err != nil {
			s.logger.Debug("finish run failed", logging.Error(err))
		}
	}
	s.logger.Info("run finished",
		logging.Int("files", len(s.report.Files)),
		logging.Int("ok", s.report.Count(history.FileStatusOK)),
		logging.Int("failed", s.report.Count(history.FileStatusFailed)),
		logging.Int("skipped", s.report.Count(history.FileStatusSkipped)),
		logging.Duration("elapsed", s.report.Elapsed),
	)
	return s.report
}

// RunBatch processes every file in inputDir whose extension matches the
// configured input extension, in name order. It returns an error only when
// inputDir cannot be listed; per-file failures are in the report.
func (p *Pipeline) RunBatch(ctx context.Context, inputDir, outputDir string) (Report, error) {
	inputs, err := p.ListInputs(inputDir)
	if err != nil {
		return Report{Kind: KindBatch, InputDir: inputDir, OutputDir: outputDir}, err
	}
	session := p.BeginSession(ctx, KindBatch, inputDir, outputDir)
	for _, path := range inputs {
		if ctx.Err() != nil {
			p.logger.Warn("batch interrupted", logging.Int("remaining", len(inputs)-len(session.report.Files)))
			break
		}
		session.Process(ctx, path)
	}
	return session.Close(ctx), nil
}

// ListInputs returns the matching recordings in dir, sorted by name.
func (p *Pipeline) ListInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "batch", "list inputs", dir, err)
	}
	var inputs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !fileutil.HasExtension(entry.Name(), p.cfg.Audio.InputExtension) {
			p.logger.Debug("skipping non-matching file", logging.String(logging.FieldFile, entry.Name()))
			continue
		}
		inputs = append(inputs, filepath.Join(dir, entry.Name()))
	}
	return inputs, nil
}
