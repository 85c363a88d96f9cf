// Package openaistt recognizes speech through the OpenAI audio
// transcription endpoint (or any compatible server set via base_url).
//
// Client satisfies the transcribe.Recognizer contract. HTTP 4xx/5xx
// responses and transport failures are tagged services.ErrService; a
// response with no text is services.ErrUnrecognized.
package openaistt
