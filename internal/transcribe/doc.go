// Package transcribe turns ordered audio segments into ordered transcript
// fragments.
//
// Every segment yields exactly one Fragment at the same position, whatever
// happens to it. Recognition failures are classified per segment and never
// escape Transcribe:
//
//   - services.ErrUnrecognized or empty text: an unintelligible fragment
//     carrying the configured marker.
//   - services.ErrService or a per-segment timeout: a failed fragment with
//     empty text, logged at WARN.
//   - anything else, including a panic in the backend: a failed fragment,
//     logged at ERROR.
//
// Segments are materialized as WAV files inside a temporary directory that
// is created once per call and removed on every exit path. Each file is
// deleted as soon as its recognition returns.
package transcribe
