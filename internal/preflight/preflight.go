package preflight

import (
	"context"
	"strings"

	"scribe/internal/config"
	"scribe/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := ForTranscription(cfg)

	// Summarizer is optional; only check it once a key is configured.
	if settings := cfg.GetLLM(); settings.APIKey != "" {
		results = append(results, CheckLLM(ctx, "Summarizer LLM", settings))
	}

	return results
}

// ForTranscription returns the checks a batch or watch run depends on.
// The summarizer is not among them.
func ForTranscription(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckReadableDirectory("Audio directory", cfg.Paths.AudioDir),
		CheckDirectoryAccess("Converted directory", cfg.Paths.ConvertedDir),
		CheckDirectoryAccess("Transcript directory", cfg.Paths.TranscriptDir),
		CheckSpeechBackend(cfg),
		CheckBinaries(cfg),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary joins failed check names and details into one line.
func Summary(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range Failed(results) {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return strings.Join(parts, "; ")
}

// Snapshot is the status view: every check plus per-binary detail.
type Snapshot struct {
	Checks        []Result
	Dependencies  []deps.Status
	FFmpegVersion string
}

// Ready reports whether every check passed.
func (s Snapshot) Ready() bool {
	return len(Failed(s.Checks)) == 0
}

// Collect gathers the status snapshot shown by "scribe status".
func Collect(ctx context.Context, cfg *config.Config) Snapshot {
	if cfg == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		Checks:       RunAll(ctx, cfg),
		Dependencies: CheckSystemDeps(cfg),
	}
	snap.FFmpegVersion = deps.Version(ctx, cfg.FFmpegBinary())
	return snap
}
