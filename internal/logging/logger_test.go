package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/services"
)

func TestNewFromConfigWritesJSONLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("batch started", logging.String("run_id", "abc"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "scribe.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log file is not JSON lines: %v (%q)", err, data)
	}
	if record["msg"] != "batch started" || record["run_id"] != "abc" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerLiftsFileAndSegmentIntoPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "transcribe").Info("segment recognized",
		logging.String(logging.FieldFile, "lecture.mp3"),
		logging.Int(logging.FieldSegmentIndex, 3),
		logging.Int("chars", 42),
	)

	line := buf.String()
	if !strings.Contains(line, "transcribe [lecture.mp3 #3]: segment recognized") {
		t.Fatalf("unexpected prefix: %q", line)
	}
	if !strings.Contains(line, "chars=42") {
		t.Fatalf("expected trailing attrs, got %q", line)
	}
	if strings.Contains(line, "file=") || strings.Contains(line, "component=") {
		t.Fatalf("lifted fields should not repeat in tail: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-9")
	ctx = services.WithFile(ctx, "talk.mp3")
	ctx = services.WithSegment(ctx, 2)

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record[logging.FieldRunID] != "run-9" {
		t.Fatalf("run id = %v", record[logging.FieldRunID])
	}
	if record[logging.FieldFile] != "talk.mp3" {
		t.Fatalf("file = %v", record[logging.FieldFile])
	}
	if record[logging.FieldSegmentIndex] != float64(2) {
		t.Fatalf("segment index = %v", record[logging.FieldSegmentIndex])
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(context.Background(), logger, "segment failed", "segment_service_error",
		logging.String(logging.FieldImpact, "segment left blank"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record[logging.FieldEventType] != "segment_service_error" {
		t.Fatalf("event type = %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
	if record[logging.FieldImpact] != "segment left blank" {
		t.Fatalf("impact = %v", record[logging.FieldImpact])
	}
}

type ctxKey struct{}

type recordingHandler struct {
	seen []any
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(ctx context.Context, _ slog.Record) error {
	h.seen = append(h.seen, ctx.Value(ctxKey{}))
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestWarnAndErrorForwardContextToHandler(t *testing.T) {
	h := &recordingHandler{}
	logger := slog.New(h)
	ctx := context.WithValue(context.Background(), ctxKey{}, "trace-7")

	logging.WarnWithContext(ctx, logger, "ledger write failed", "conversion_ledger_failed")
	logging.ErrorWithContext(ctx, logger, "file failed", "file_failed")

	if len(h.seen) != 2 {
		t.Fatalf("expected two records, got %d", len(h.seen))
	}
	for i, v := range h.seen {
		if v != "trace-7" {
			t.Fatalf("record %d: handler saw context value %v", i, v)
		}
	}
}
