package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndAppendSections(t *testing.T) {
	path := PathFor(t.TempDir(), "/audio/lecture 3.mp3")
	if filepath.Base(path) != "lecture 3.txt" {
		t.Fatalf("unexpected transcript name %s", path)
	}
	if err := Write(path, "hello ... world"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Transcribed Text: \nhello ... world" {
		t.Fatalf("unexpected file content %q", data)
	}

	if err := AppendPreprocessed(path, "hello world"); err != nil {
		t.Fatalf("AppendPreprocessed: %v", err)
	}
	if err := AppendSummary(path, "A greeting."); err != nil {
		t.Fatalf("AppendSummary: %v", err)
	}
	data, _ = os.ReadFile(path)
	want := "Transcribed Text: \nhello ... world\n\nPreprocessed Text:\nhello world\n\nSummarization: \nA greeting."
	if string(data) != want {
		t.Fatalf("unexpected file content %q", data)
	}

	doc, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Transcript != "hello ... world" || doc.Preprocessed != "hello world" || doc.Summary != "A greeting." {
		t.Fatalf("unexpected document %+v", doc)
	}
	if !doc.HasPreprocessed || !doc.HasSummary {
		t.Fatalf("expected both sections, got %+v", doc)
	}
}

func TestParseSummaryWithoutPreprocessed(t *testing.T) {
	doc, err := Parse("Transcribed Text: \nsome words\n\nSummarization: \nshort")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.HasPreprocessed || doc.Transcript != "some words" || doc.Summary != "short" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestParseRejectsForeignFile(t *testing.T) {
	if _, err := Parse("meeting notes"); !errors.Is(err, ErrMissingHeader) {
		t.Fatalf("expected ErrMissingHeader, got %v", err)
	}
}

func TestAppendRequiresExistingFile(t *testing.T) {
	if err := AppendSummary(filepath.Join(t.TempDir(), "missing.txt"), "x"); err == nil {
		t.Fatal("expected append to a missing file to fail")
	}
}

func TestSaveKeepsSectionOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk.txt")
	doc := Document{Transcript: "raw", Summary: "sum", HasSummary: true}
	doc.Preprocessed, doc.HasPreprocessed = "clean", true
	if err := Save(path, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	want := "Transcribed Text: \nraw\n\nPreprocessed Text:\nclean\n\nSummarization: \nsum"
	if string(data) != want {
		t.Fatalf("unexpected content %q", data)
	}
}
