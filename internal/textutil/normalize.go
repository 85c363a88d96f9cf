package textutil

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"scribe/internal/services"
)

// TranscriptLabel heads the transcript section of a transcript file.
const TranscriptLabel = "Transcribed Text:"

var ellipsisPattern = regexp.MustCompile(`\.{3,}`)

// NormalizeTranscript cleans raw transcript text for downstream use:
//
//  1. strip a leading TranscriptLabel, then trim
//  2. lowercase
//  3. replace every run of three or more periods with a space
//  4. drop everything that is not a-z or whitespace
//  5. collapse whitespace runs to one space and trim
//
// The result matches ^[a-z ]*$ and NormalizeTranscript is idempotent on its
// own output. Any internal failure is reported as services.ErrNormalization.
func NormalizeTranscript(raw string) (cleaned string, err error) {
	defer func() {
		if r := recover(); r != nil {
			cleaned = ""
			err = services.Wrap(services.ErrNormalization, "normalize", "", fmt.Sprint(r), nil)
		}
	}()

	text := raw
	if strings.HasPrefix(text, TranscriptLabel) {
		text = strings.TrimPrefix(text, TranscriptLabel)
	}
	text = strings.TrimSpace(text)

	// Casers are stateful; one per call keeps this safe for concurrent use.
	text = cases.Lower(language.Und).String(text)
	text = ellipsisPattern.ReplaceAllString(text, " ")
	text = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, text)
	return strings.Join(strings.Fields(text), " "), nil
}
