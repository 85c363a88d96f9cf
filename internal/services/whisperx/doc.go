// Package whisperx runs local speech recognition through WhisperX.
//
// WhisperX is launched with uvx so no Python environment has to be managed
// by the operator. Each call recognizes one segment WAV, writes the JSON
// result into a scratch directory beside it, and returns the joined text.
//
// Service satisfies the transcribe.Recognizer contract: empty output maps to
// services.ErrUnrecognized, a failed process maps to services.ErrService.
package whisperx
