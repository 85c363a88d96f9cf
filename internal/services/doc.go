// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, input file names, segment indexes,
//     and stage names for logging.
//   - Structured error markers plus the Wrap helper, and Kind, which maps a
//     failure to the short label recorded in batch reports and run history.
//
// Subpackages hold the concrete adapters for external collaborators: the
// speech-to-text backends and the LLM summarizer.
package services
