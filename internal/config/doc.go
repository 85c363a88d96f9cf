// Package config loads, normalizes, and validates scribe configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as OPENAI_API_KEY and
// HF_TOKEN. The Config type centralizes every knob the pipeline and CLI need so
// input/output directories, silence-detection thresholds, and speech-to-text
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
