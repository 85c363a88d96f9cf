// Package pipeline wires conversion, segmentation, and transcription into a
// per-file pipeline and runs it over batches of recordings.
//
// RunFile sequences Converter → Segmenter → Transcriber and writes the
// transcript file. RunBatch and Session apply RunFile to many inputs; a
// failed file is logged, recorded, and skipped, and the batch continues.
//
// Preprocess and Summarize are post-steps over a directory of transcript
// files. They append a section to each file and can be rerun at any time.
package pipeline
