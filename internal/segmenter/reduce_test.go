package segmenter_test

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"subseg/internal/segmenter"
	"subseg/internal/vision"
)

type tagFilter struct{}

func (tagFilter) Apply(_ context.Context, img image.Image) (image.Image, error) {
	return tagged("clip(" + tagOf(img) + ")"), nil
}

func TestReduceMergesAndFilters(t *testing.T) {
	in := makeFrames(4)
	seg := segmenter.Segment{Frames: in[1:4]}
	r := segmenter.Reducer{Merger: &tagMerger{}, Filter: tagFilter{}}

	got, err := r.Reduce(context.Background(), seg)
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}
	if tagOf(got.Image) != "clip(f1+f2+f3)" {
		t.Fatalf("unexpected representative image %q", tagOf(got.Image))
	}
	if got.Start != time.Second || got.End != 4*time.Second {
		t.Fatalf("unexpected span %v-%v", got.Start, got.End)
	}
	if got.FileName != "f1.png" {
		t.Fatalf("unexpected file name %q", got.FileName)
	}
}

func TestReduceSingleFrameIsUnchanged(t *testing.T) {
	in := makeFrames(1)
	got, err := segmenter.Reducer{}.Reduce(context.Background(), segmenter.Segment{Frames: in})
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}
	if tagOf(got.Image) != "f0" || got.End != time.Second {
		t.Fatalf("expected the frame back unchanged, got %+v", got)
	}
}

func TestReduceErrors(t *testing.T) {
	if _, err := (segmenter.Reducer{}).Reduce(context.Background(), segmenter.Segment{}); err == nil {
		t.Fatal("expected error for empty segment")
	}
	boom := errors.New("no canvas")
	failing := vision.MergerFunc(func(context.Context, ...image.Image) (image.Image, error) { return nil, boom })
	_, err := segmenter.Reducer{Merger: failing}.Reduce(context.Background(), segmenter.Segment{Frames: makeFrames(2)})
	if !errors.Is(err, segmenter.ErrMerge) || !errors.Is(err, boom) {
		t.Fatalf("expected merge failure, got %v", err)
	}
}
