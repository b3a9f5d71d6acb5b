package segmenter

import (
	"context"
	"errors"
	"fmt"
	"image"

	"subseg/internal/frames"
	"subseg/internal/vision"
)

// Reducer collapses a Segment into one representative frame.
type Reducer struct {
	Merger vision.Merger
	// Filter is optional cleanup applied to merged composites.
	Filter vision.Filter
}

// Reduce merges the segment images into one frame spanning the whole segment.
// A single-frame segment is returned as is.
func (r Reducer) Reduce(ctx context.Context, seg Segment) (frames.Frame, error) {
	switch seg.Len() {
	case 0:
		return frames.Frame{}, errors.New("reduce: empty segment")
	case 1:
		return seg.Frames[0], nil
	}
	if r.Merger == nil {
		return frames.Frame{}, errors.New("reduce: merger not configured")
	}

	images := make([]image.Image, seg.Len())
	for i, f := range seg.Frames {
		images[i] = f.Image
	}
	merged, err := r.Merger.Merge(ctx, images...)
	if err != nil {
		return frames.Frame{}, fmt.Errorf("reduce: %w: %w", ErrMerge, err)
	}
	if r.Filter != nil {
		if merged, err = r.Filter.Apply(ctx, merged); err != nil {
			return frames.Frame{}, fmt.Errorf("reduce: filter: %w", err)
		}
	}
	return frames.Frame{
		Image:    merged,
		Start:    seg.Start(),
		End:      seg.End(),
		FileName: seg.Frames[0].FileName,
	}, nil
}
