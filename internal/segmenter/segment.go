package segmenter

import (
	"time"

	"subseg/internal/frames"
)

// Segment is a contiguous run of input frames showing one subtitle.
type Segment struct {
	Frames []frames.Frame
}

// Start is the start time of the first frame.
func (s Segment) Start() time.Duration {
	if len(s.Frames) == 0 {
		return 0
	}
	return s.Frames[0].Start
}

// End is the end time of the last frame.
func (s Segment) End() time.Duration {
	if len(s.Frames) == 0 {
		return 0
	}
	return s.Frames[len(s.Frames)-1].End
}

// Len returns the number of frames in the segment.
func (s Segment) Len() int {
	return len(s.Frames)
}

// FileNames lists the source identifiers of the segment frames in order.
func (s Segment) FileNames() []string {
	out := make([]string, len(s.Frames))
	for i, f := range s.Frames {
		out[i] = f.FileName
	}
	return out
}
