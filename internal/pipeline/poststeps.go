package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/fileutil"
	"scribe/internal/history"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/textutil"
	"scribe/internal/transcript"
)

// Preprocess appends a normalized copy of each transcript in dir. Files that
// already carry the section are skipped unless force is set.
func (p *Pipeline) Preprocess(ctx context.Context, dir string, force bool) (Report, error) {
	return p.postStep(ctx, KindPreprocess, dir, func(ctx context.Context, path string, doc transcript.Document) (FileResult, error) {
		result := FileResult{Source: filepath.Base(path), OutputPath: path}
		if doc.HasPreprocessed && !force {
			result.Status = history.FileStatusSkipped
			result.Reason = "already preprocessed"
			return result, nil
		}
		appendOnly := !doc.HasPreprocessed && !doc.HasSummary
		normalized, err := textutil.NormalizeTranscript(doc.Transcript)
		if err != nil {
			return result, err
		}
		doc.Preprocessed = normalized
		doc.HasPreprocessed = true
		if err := saveSection(path, doc, appendOnly, transcript.AppendPreprocessed, normalized); err != nil {
			return result, err
		}
		result.Status = history.FileStatusOK
		return result, nil
	})
}

// Summarize appends an LLM summary of each transcript in dir. Files that
// already carry the section are skipped unless force is set.
func (p *Pipeline) Summarize(ctx context.Context, dir string, force bool) (Report, error) {
	if p.deps.Summarizer == nil {
		return Report{Kind: KindSummarize, InputDir: dir}, services.Wrap(services.ErrConfiguration, "summarize", "", "no summarizer configured (set llm.api_key)", nil)
	}
	return p.postStep(ctx, KindSummarize, dir, func(ctx context.Context, path string, doc transcript.Document) (FileResult, error) {
		result := FileResult{Source: filepath.Base(path), OutputPath: path}
		hadSummary := doc.HasSummary
		if hadSummary && !force {
			result.Status = history.FileStatusSkipped
			result.Reason = "already summarized"
			return result, nil
		}
		if !hasRecognizedText(doc.Transcript, p.cfg.Transcription.UnintelligibleMarker) {
			result.Status = history.FileStatusSkipped
			result.Reason = "transcript has no recognized text"
			return result, nil
		}
		summary, err := p.deps.Summarizer.Summarize(ctx, doc.Transcript)
		if err != nil {
			return result, err
		}
		doc.Summary = summary
		doc.HasSummary = true
		if err := saveSection(path, doc, !hadSummary, transcript.AppendSummary, summary); err != nil {
			return result, err
		}
		result.Status = history.FileStatusOK
		return result, nil
	})
}

type postStepFunc func(ctx context.Context, path string, doc transcript.Document) (FileResult, error)

func (p *Pipeline) postStep(ctx context.Context, kind, dir string, step postStepFunc) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{Kind: kind, InputDir: dir}, services.Wrap(services.ErrValidation, kind, "list transcripts", dir, err)
	}
	session := p.BeginSession(ctx, kind, dir, dir)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if entry.IsDir() || !fileutil.HasExtension(entry.Name(), transcript.Extension) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		fileCtx := services.WithFile(services.WithRunID(ctx, session.RunID()), entry.Name())
		logger := logging.WithContext(fileCtx, p.logger)
		start := time.Now()

		doc, err := transcript.Read(path)
		if errors.Is(err, transcript.ErrMissingHeader) {
			logger.Debug("skipping file without transcript header")
			continue
		}
		var result FileResult
		if err == nil {
			result, err = step(fileCtx, path, doc)
		}
		result.Source = entry.Name()
		result.OutputPath = path
		result.Elapsed = time.Since(start)
		if err != nil {
			result.Status = history.FileStatusFailed
			result.Err = err
			logging.ErrorWithContext(fileCtx, logger, kind+" failed", kind+"_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorKind, result.ErrorKind()),
				logging.String(logging.FieldErrorHint, errorHint(err)),
			)
		} else if result.Status == history.FileStatusSkipped {
			logger.Info(kind+" skipped", logging.String("reason", result.Reason))
		} else {
			logger.Info(kind+" appended", logging.Duration("elapsed", result.Elapsed))
		}
		session.Record(fileCtx, result)
	}
	return session.Close(ctx), nil
}

// saveSection appends text when the section is new and last in the file;
// otherwise the whole document is rewritten so section order stays fixed.
func saveSection(path string, doc transcript.Document, appendOnly bool, appendFn func(string, string) error, text string) error {
	if appendOnly {
		return appendFn(path, text)
	}
	return transcript.Save(path, doc)
}

func hasRecognizedText(text, marker string) bool {
	if marker != "" {
		text = strings.ReplaceAll(text, marker, " ")
	}
	return strings.TrimSpace(text) != ""
}
