package publish

import (
	"time"

	"tutorialpub/internal/manifest"
	"tutorialpub/internal/metadata"
)

// RunState summarizes a publish run.
type RunState string

const (
	StateCompleted       RunState = "completed"
	StatePartiallyFailed RunState = "partially-failed"
	StateRejected        RunState = "rejected"
)

// FileStatus is the terminal state of one file in a run.
type FileStatus string

const (
	StatusSuccess         FileStatus = "success"
	StatusUploadFailed    FileStatus = "upload-failed"
	StatusReconcileFailed FileStatus = "reconcile-failed"
)

// FileOutcome reports what happened to one file.
type FileOutcome struct {
	Path            string
	Status          FileStatus
	Digest          string
	StorageRef      string
	Uploaded        bool
	MetadataWritten bool
	Err             error
}

// RunResult is the structured report of a publish run.
type RunResult struct {
	RunID        string
	Slug         string
	Root         string
	State        RunState
	PackageState string
	StartedAt    time.Time
	FinishedAt   time.Time

	// Outcomes is sorted by path.
	Outcomes       []FileOutcome
	Uploads        int
	MetadataWrites int
	// Excluded lists paths dropped by the run's filter.
	Excluded []string

	Manifest manifest.Manifest
	Metadata *metadata.Document
}

// Failed counts files that did not finish successfully.
func (r *RunResult) Failed() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, o := range r.Outcomes {
		if o.Status != StatusSuccess {
			n++
		}
	}
	return n
}

// Outcome returns the outcome for path.
func (r *RunResult) Outcome(path string) (FileOutcome, bool) {
	if r == nil {
		return FileOutcome{}, false
	}
	for _, o := range r.Outcomes {
		if o.Path == path {
			return o, true
		}
	}
	return FileOutcome{}, false
}

// Duration returns how long the run took.
func (r *RunResult) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
