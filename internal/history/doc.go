// Package history persists batch runs, per-file outcomes, and the conversion
// cache ledger in SQLite.
//
// Every batch gets a run row keyed by a UUID; each processed input file adds a
// file_results row with its status, error kind, and segment/fragment counts so
// `scribe history` can explain what happened after the fact. The conversions
// table records which source (path, size, mtime, optional content hash)
// produced each canonical file, and is what the format normalizer consults to
// decide whether an existing canonical file is still valid.
//
// Schema changes bump schemaVersion in schema.go; users delete the database
// to adopt the new schema.
package history
