package pipeline

import (
	"time"

	"scribe/internal/history"
	"scribe/internal/services"
)

// FileResult describes what happened to one input.
type FileResult struct {
	Source         string
	OutputPath     string
	Status         history.FileStatus
	Err            error
	Reason         string
	Segments       int
	Recognized     int
	Unintelligible int
	FragmentFailed int
	Elapsed        time.Duration
}

// ErrorKind returns services.Kind of the failure, or "" on success.
func (r FileResult) ErrorKind() string {
	return services.Kind(r.Err)
}

func (r FileResult) toHistory(runID string) history.FileResult {
	out := history.FileResult{
		RunID:                   runID,
		FileName:                r.Source,
		Status:                  r.Status,
		ErrorKind:               r.ErrorKind(),
		Segments:                r.Segments,
		FragmentsUnintelligible: r.Unintelligible,
		FragmentsFailed:         r.FragmentFailed,
		OutputPath:              r.OutputPath,
		Elapsed:                 r.Elapsed,
	}
	switch {
	case r.Err != nil:
		out.ErrorMessage = r.Err.Error()
	case r.Reason != "":
		out.ErrorMessage = r.Reason
	}
	return out
}

// Report aggregates the results of a batch or post-step run.
type Report struct {
	RunID     string
	Kind      string
	InputDir  string
	OutputDir string
	StartedAt time.Time
	Elapsed   time.Duration
	Files     []FileResult
}

// Count returns how many files ended with status.
func (r Report) Count(status history.FileStatus) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// HasFailures reports whether any file failed.
func (r Report) HasFailures() bool {
	return r.Count(history.FileStatusFailed) > 0
}
