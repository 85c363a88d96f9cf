package transcribe

import "strings"

// Status describes the outcome of one segment.
type Status string

const (
	StatusRecognized     Status = "recognized"
	StatusUnintelligible Status = "unintelligible"
	StatusFailed         Status = "failed"
)

// Fragment is the transcription result for the segment at Index.
type Fragment struct {
	Index  int
	Status Status
	Text   string
	Err    error
}

// Transcript holds one fragment per input segment, in segment order.
type Transcript struct {
	Fragments []Fragment
}

// Len returns the number of fragments.
func (t Transcript) Len() int {
	return len(t.Fragments)
}

// Text joins every fragment with a single space. Empty fragments are kept so
// positions stay aligned with the source segments.
func (t Transcript) Text() string {
	parts := make([]string, len(t.Fragments))
	for i, frag := range t.Fragments {
		parts[i] = frag.Text
	}
	return strings.Join(parts, " ")
}

// Counts tallies fragments by status.
func (t Transcript) Counts() (recognized, unintelligible, failed int) {
	for _, frag := range t.Fragments {
		switch frag.Status {
		case StatusRecognized:
			recognized++
		case StatusUnintelligible:
			unintelligible++
		default:
			failed++
		}
	}
	return recognized, unintelligible, failed
}
