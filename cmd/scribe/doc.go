// Package main hosts the scribe CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, builds the logger, opens the
// run history, and then hands off to internal/pipeline for batch, single-file,
// and watch transcription or for the preprocess and summarize post-steps.
// Status, history, and config commands are read-only views.
//
// Keep this package thin: new behaviour belongs in the internal packages and
// is surfaced here as a command or flag.
package main
