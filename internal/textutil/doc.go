// Package textutil cleans transcript text.
//
// NormalizeTranscript turns the raw joined output of the chunk transcriber
// into a lowercase, letters-and-spaces string: ellipsis markers become word
// separators, punctuation and digits are dropped, and whitespace is collapsed.
package textutil
