package pipeline

import "time"

// Report summarizes a completed run.
type Report struct {
	RunID     string          `json:"run_id"`
	Source    string          `json:"source"`
	Output    string          `json:"output"`
	Frames    int             `json:"frames"`
	PreMerged int             `json:"pre_merged"`
	Segments  []SegmentResult `json:"segments"`
	Elapsed   time.Duration   `json:"elapsed_ns"`
}

// SegmentResult describes one emitted segment.
type SegmentResult struct {
	Index   int      `json:"index"`
	StartMS int64    `json:"start_ms"`
	EndMS   int64    `json:"end_ms"`
	Frames  []string `json:"frames"`
	Image   string   `json:"image,omitempty"`
}

// Start returns the segment start as a duration.
func (s SegmentResult) Start() time.Duration {
	return time.Duration(s.StartMS) * time.Millisecond
}

// End returns the segment end as a duration.
func (s SegmentResult) End() time.Duration {
	return time.Duration(s.EndMS) * time.Millisecond
}
