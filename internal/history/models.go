package history

import "time"

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one invocation of the segmentation pipeline.
type Run struct {
	ID           string
	SourceDir    string
	OutputDir    string
	Status       Status
	Frames       int
	PreMerged    int
	SegmentCount int
	ErrorKind    string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration reports how long the run took, or zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SegmentRecord is the persisted form of one emitted segment.
type SegmentRecord struct {
	Seq        int
	Start      time.Duration
	End        time.Duration
	FrameCount int
	ImagePath  string
}

// Summary carries the results recorded when a run completes.
type Summary struct {
	OutputDir string
	Frames    int
	PreMerged int
	Segments  []SegmentRecord
}
