// Package transcript reads and writes transcript files.
//
// A transcript file starts with the transcript section and may be followed
// by a preprocessed section and a summary section, each appended later:
//
//	Transcribed Text:
//	<fragment0> <fragment1> ...
//
//	Preprocessed Text:
//	<normalized text>
//
//	Summarization:
//	<summary>
//
// The "Transcribed Text:" and "Summarization:" headers are written with one
// trailing space before the newline; "Preprocessed Text:" has none.
package transcript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scribe/internal/fileutil"
	"scribe/internal/textutil"
)

const (
	header             = textutil.TranscriptLabel + " \n"
	preprocessedMarker = "\n\nPreprocessed Text:\n"
	summaryMarker      = "\n\nSummarization: \n"
)

// Extension is the file extension of transcript files.
const Extension = ".txt"

// ErrMissingHeader reports a file that does not start with the transcript label.
var ErrMissingHeader = errors.New("transcript header missing")

// Document is a parsed transcript file.
type Document struct {
	Transcript      string
	Preprocessed    string
	Summary         string
	HasPreprocessed bool
	HasSummary      bool
}

// PathFor returns the transcript file for an input recording.
func PathFor(dir, source string) string {
	return filepath.Join(dir, fileutil.Stem(source)+Extension)
}

// Write replaces path with a transcript file holding text.
func Write(path, text string) error {
	return fileutil.WriteFileAtomic(path, []byte(header+text), 0o644)
}

// Read parses the transcript file at path.
func Read(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Parse(string(data))
}

// Parse splits transcript file content into its sections.
func Parse(content string) (Document, error) {
	body, ok := strings.CutPrefix(content, textutil.TranscriptLabel)
	if !ok {
		return Document{}, ErrMissingHeader
	}
	body = strings.TrimPrefix(body, " ")
	body = strings.TrimPrefix(body, "\n")

	var doc Document
	if idx := strings.Index(body, summaryMarker); idx >= 0 {
		doc.Summary = body[idx+len(summaryMarker):]
		doc.HasSummary = true
		body = body[:idx]
	}
	if idx := strings.Index(body, preprocessedMarker); idx >= 0 {
		doc.Preprocessed = body[idx+len(preprocessedMarker):]
		doc.HasPreprocessed = true
		body = body[:idx]
	}
	doc.Transcript = body
	return doc, nil
}

// Save rewrites path atomically with every section present in doc.
func Save(path string, doc Document) error {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString(doc.Transcript)
	if doc.HasPreprocessed {
		b.WriteString(preprocessedMarker)
		b.WriteString(doc.Preprocessed)
	}
	if doc.HasSummary {
		b.WriteString(summaryMarker)
		b.WriteString(doc.Summary)
	}
	return fileutil.WriteFileAtomic(path, []byte(b.String()), 0o644)
}

// AppendPreprocessed appends the normalized text section.
func AppendPreprocessed(path, text string) error {
	return appendSection(path, preprocessedMarker, text)
}

// AppendSummary appends the summary section.
func AppendSummary(path, summary string) error {
	return appendSection(path, summaryMarker, summary)
}

func appendSection(path, marker, text string) error {
	if err := fileutil.AppendFile(path, []byte(marker+text)); err != nil {
		return fmt.Errorf("append section to %s: %w", filepath.Base(path), err)
	}
	return nil
}
