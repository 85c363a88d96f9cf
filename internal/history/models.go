package history

import "time"

// FileStatus is the outcome of processing one input file.
type FileStatus string

const (
	FileStatusOK      FileStatus = "ok"
	FileStatusFailed  FileStatus = "failed"
	FileStatusSkipped FileStatus = "skipped"
)

// Run is one invocation of a batch, watch session, or post-step.
type Run struct {
	ID          string
	Kind        string
	InputDir    string
	OutputDir   string
	StartedAt   time.Time
	FinishedAt  time.Time
	FilesTotal  int
	FilesFailed int
}

// Finished reports whether the run recorded a completion time.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// FileResult records what happened to a single input file within a run.
type FileResult struct {
	RunID                   string
	FileName                string
	Status                  FileStatus
	ErrorKind               string
	ErrorMessage            string
	Segments                int
	FragmentsUnintelligible int
	FragmentsFailed         int
	OutputPath              string
	Elapsed                 time.Duration
	RecordedAt              time.Time
}

// Conversion ties a canonical file to the exact source state it was produced from.
type Conversion struct {
	CanonicalPath string
	SourcePath    string
	SourceSize    int64
	SourceModTime time.Time
	ContentHash   string
	TargetFormat  string
	CreatedAt     time.Time
}
