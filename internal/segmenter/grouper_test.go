package segmenter_test

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"slices"
	"testing"
	"time"

	"subseg/internal/segmenter"
	"subseg/internal/vision"
)

func newGrouper(d vision.Detector, m vision.Merger) *segmenter.Grouper {
	return segmenter.NewGrouper(d, m, segmenter.DefaultOptions(), nil)
}

func TestGroupEndToEndScenario(t *testing.T) {
	detector := &scriptDetector{script: map[string]vision.Detection{
		"f0":          det(4, 0.80),
		"f0+f1":       det(3, 0.80),
		"f0+f1+f2":    det(2, 0.80),
		"f0+f1+f2+f3": det(2, 0.80),
	}}
	merger := &tagMerger{}
	in := makeFrames(5)

	segs, err := newGrouper(detector, merger).Group(context.Background(), in)
	if err != nil {
		t.Fatalf("Group returned error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if got := segs[0].FileNames(); !slices.Equal(got, []string{"f0.png", "f1.png", "f2.png"}) {
		t.Fatalf("unexpected segment frames: %v", got)
	}
	if segs[0].Start() != 0 || segs[0].End() != 3*time.Second {
		t.Fatalf("unexpected span %v-%v", segs[0].Start(), segs[0].End())
	}
	wantMerges := []string{"f0+f1", "f0+f1+f2", "f0+f1+f2+f3"}
	if !slices.Equal(merger.calls, wantMerges) {
		t.Fatalf("unexpected merge calls: %v", merger.calls)
	}
}

func TestGroupRejectedFrameStartsNextPair(t *testing.T) {
	detector := &scriptDetector{script: map[string]vision.Detection{
		"f0":          det(4, 0.80),
		"f0+f1":       det(3, 0.80),
		"f0+f1+f2":    det(3, 0.80), // dive: closes [f0 f1]
		"f2":          det(4, 0.70),
		"f2+f3":       det(2, 0.75),
		"f2+f3+f4":    det(1, 0.75),
		"f2+f3+f4+f5": det(1, 0.75), // dive: closes [f2 f3 f4]
		"f5":          det(1, 0.10),
		"f5+f6":       det(1, 0.10),
	}}
	segs, err := newGrouper(detector, &tagMerger{}).Group(context.Background(), makeFrames(8))
	if err != nil {
		t.Fatalf("Group returned error: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if got := segs[0].FileNames(); !slices.Equal(got, []string{"f0.png", "f1.png"}) {
		t.Fatalf("unexpected first segment: %v", got)
	}
	if got := segs[1].FileNames(); !slices.Equal(got, []string{"f2.png", "f3.png", "f4.png"}) {
		t.Fatalf("unexpected second segment: %v", got)
	}
	// f2 is examined on its own right after the first group closes.
	idx := slices.Index(detector.calls, "f0+f1+f2")
	if idx < 0 || idx+1 >= len(detector.calls) || detector.calls[idx+1] != "f2" {
		t.Fatalf("expected f2 to be re-evaluated as a new pair start, calls: %v", detector.calls)
	}
}

func TestGroupLooseFrameRescue(t *testing.T) {
	cases := []struct {
		name  string
		first vision.Detection
		want  int
	}{
		{"many regions with good precision", det(3, 0.60), 1},
		{"too few regions", det(2, 0.90), 0},
		{"precision rounds to threshold", det(5, 0.5004), 0},
		{"precision just above threshold", det(5, 0.5006), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			detector := &scriptDetector{script: map[string]vision.Detection{
				"f0":    tc.first,
				"f0+f1": det(0, 0), // empty: never a nice merge
			}, fallback: &vision.Detection{}}
			segs, err := newGrouper(detector, &tagMerger{}).Group(context.Background(), makeFrames(3))
			if err != nil {
				t.Fatalf("Group returned error: %v", err)
			}
			if len(segs) != tc.want {
				t.Fatalf("expected %d segments, got %d", tc.want, len(segs))
			}
			if tc.want == 1 && !slices.Equal(segs[0].FileNames(), []string{"f0.png"}) {
				t.Fatalf("expected lone f0 segment, got %v", segs[0].FileNames())
			}
		})
	}
}

func TestGroupCustomLooseThresholds(t *testing.T) {
	detector := &scriptDetector{script: map[string]vision.Detection{"f0": det(1, 0.3)}, fallback: &vision.Detection{}}
	g := segmenter.NewGrouper(detector, &tagMerger{}, segmenter.Options{LooseMinRegions: 0, LooseMinPrecision: 0.2}, nil)
	segs, err := g.Group(context.Background(), makeFrames(3))
	if err != nil {
		t.Fatalf("Group returned error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected loose frame with relaxed thresholds, got %d segments", len(segs))
	}
}

func TestGroupDiscardsTrailingGroup(t *testing.T) {
	nice := map[string]vision.Detection{
		"f0":       det(4, 0.8),
		"f0+f1":    det(3, 0.8),
		"f0+f1+f2": det(2, 0.8),
	}
	segs, err := newGrouper(&scriptDetector{script: nice}, &tagMerger{}).Group(context.Background(), makeFrames(4))
	if err != nil {
		t.Fatalf("Group returned error: %v", err)
	}
	if len(segs) != 0 {
		t.Fatalf("expected unfinished group to be discarded, got %d segments", len(segs))
	}
}

func TestGroupShortInputs(t *testing.T) {
	for n := 0; n <= 2; n++ {
		detector := &scriptDetector{}
		segs, err := newGrouper(detector, &tagMerger{}).Group(context.Background(), makeFrames(n))
		if err != nil {
			t.Fatalf("n=%d: Group returned error: %v", n, err)
		}
		if len(segs) != 0 || len(detector.calls) != 0 {
			t.Fatalf("n=%d: expected no work, got %d segments and calls %v", n, len(segs), detector.calls)
		}
	}
}

func TestGroupPropagatesDetectionFailure(t *testing.T) {
	boom := errors.New("vision crashed")
	detector := &scriptDetector{
		script: map[string]vision.Detection{"f0": det(4, 0.8), "f0+f1": det(3, 0.8)},
		fail:   map[string]error{"f0+f1+f2": boom},
	}
	segs, err := newGrouper(detector, &tagMerger{}).Group(context.Background(), makeFrames(5))
	if segs != nil {
		t.Fatalf("expected no segments on failure, got %d", len(segs))
	}
	if !errors.Is(err, segmenter.ErrDetection) || !errors.Is(err, boom) {
		t.Fatalf("expected detection failure wrapping cause, got %v", err)
	}
	var stepErr *segmenter.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *StepError, got %T", err)
	}
	if stepErr.Cursor != 2 || stepErr.FileName != "f2.png" || stepErr.State != segmenter.StateAccumulating {
		t.Fatalf("unexpected step error: %+v", stepErr)
	}
}

func TestGroupPropagatesMergeFailure(t *testing.T) {
	boom := errors.New("canvas too large")
	detector := &scriptDetector{script: map[string]vision.Detection{"f0": det(4, 0.8)}}
	merger := &tagMerger{fail: map[string]error{"f0+f1": boom}}
	_, err := newGrouper(detector, merger).Group(context.Background(), makeFrames(3))
	if !errors.Is(err, segmenter.ErrMerge) || !errors.Is(err, boom) {
		t.Fatalf("expected merge failure wrapping cause, got %v", err)
	}
}

func TestGroupRequiresCollaborators(t *testing.T) {
	if _, err := segmenter.NewGrouper(nil, &tagMerger{}, segmenter.DefaultOptions(), nil).Group(context.Background(), makeFrames(3)); err == nil {
		t.Fatal("expected error without detector")
	}
}

func TestGroupHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newGrouper(&scriptDetector{}, &tagMerger{}).Group(ctx, makeFrames(4))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// hashDetector derives a stable pseudo-random detection from the image tag.
type hashDetector struct{ seed string }

func (d hashDetector) Detect(_ context.Context, img image.Image) (vision.Detection, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(d.seed + tagOf(img)))
	sum := h.Sum32()
	return det(int(sum%5), 0.4+float64(sum%7)/10), nil
}

func TestGroupSegmentsAreContiguousAndOrdered(t *testing.T) {
	in := makeFrames(60)
	position := make(map[string]int, len(in))
	for i, f := range in {
		position[f.FileName] = i
	}

	for seed := 0; seed < 25; seed++ {
		d := hashDetector{seed: fmt.Sprintf("seed-%d/", seed)}
		segs, err := newGrouper(d, &tagMerger{}).Group(context.Background(), in)
		if err != nil {
			t.Fatalf("seed %d: Group returned error: %v", seed, err)
		}
		last := -1
		for si, seg := range segs {
			if seg.Len() == 0 {
				t.Fatalf("seed %d: segment %d is empty", seed, si)
			}
			first := position[seg.Frames[0].FileName]
			if first <= last {
				t.Fatalf("seed %d: segment %d overlaps or precedes the previous one", seed, si)
			}
			for j, f := range seg.Frames {
				if position[f.FileName] != first+j {
					t.Fatalf("seed %d: segment %d is not contiguous: %v", seed, si, seg.FileNames())
				}
			}
			last = first + seg.Len() - 1
			if seg.Start() != in[first].Start || seg.End() != in[last].End {
				t.Fatalf("seed %d: segment %d span mismatch", seed, si)
			}
			if si > 0 && segs[si-1].End() > seg.Start() {
				t.Fatalf("seed %d: segment %d starts before the previous one ends", seed, si)
			}
		}
	}
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from    segmenter.State
		outcome segmenter.Outcome
		want    segmenter.Transition
	}{
		{segmenter.StateIdle, segmenter.PairAccepted, segmenter.Transition{Next: segmenter.StateAccumulating, Advance: 2}},
		{segmenter.StateIdle, segmenter.PairRejected, segmenter.Transition{Next: segmenter.StateIdle, Advance: 1}},
		{segmenter.StateIdle, segmenter.Skipped, segmenter.Transition{Next: segmenter.StateIdle, Advance: 1}},
		{segmenter.StateAccumulating, segmenter.FrameAccepted, segmenter.Transition{Next: segmenter.StateAccumulating, Advance: 1}},
		{segmenter.StateAccumulating, segmenter.FrameRejected, segmenter.Transition{Next: segmenter.StateIdle, Advance: 0}},
		{segmenter.StateAccumulating, segmenter.Skipped, segmenter.Transition{Next: segmenter.StateAccumulating, Advance: 1}},
	}
	for _, tc := range cases {
		got, ok := segmenter.Next(tc.from, tc.outcome)
		if !ok || got != tc.want {
			t.Fatalf("Next(%s, %s) = %+v, %v; want %+v", tc.from, tc.outcome, got, ok, tc.want)
		}
	}
	if _, ok := segmenter.Next(segmenter.StateIdle, segmenter.FrameAccepted); ok {
		t.Fatal("idle state must not accept frame outcomes")
	}
	if _, ok := segmenter.Next(segmenter.StateAccumulating, segmenter.PairAccepted); ok {
		t.Fatal("accumulating state must not accept pair outcomes")
	}
}
