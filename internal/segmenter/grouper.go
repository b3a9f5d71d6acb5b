package segmenter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"subseg/internal/frames"
	"subseg/internal/logging"
	"subseg/internal/vision"
)

// State is the grouping scan state.
type State int

const (
	// StateIdle has no tentative group.
	StateIdle State = iota
	// StateAccumulating grows a group of at least two frames.
	StateAccumulating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the result of evaluating one scan step.
type Outcome int

const (
	// PairAccepted means the first two frames of a new group merged nicely.
	PairAccepted Outcome = iota
	// PairRejected means the pair did not merge nicely. The first frame may
	// still be kept alone.
	PairRejected
	// FrameAccepted means the next frame merged nicely into the working image.
	FrameAccepted
	// FrameRejected means the group closed. The rejected frame is evaluated again.
	FrameRejected
	// Skipped means too few frames remain for the current state.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case PairAccepted:
		return "pair_accepted"
	case PairRejected:
		return "pair_rejected"
	case FrameAccepted:
		return "frame_accepted"
	case FrameRejected:
		return "frame_rejected"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Transition is the next state and cursor advance for an outcome.
type Transition struct {
	Next    State
	Advance int
}

var transitions = map[State]map[Outcome]Transition{
	StateIdle: {
		PairAccepted: {Next: StateAccumulating, Advance: 2},
		PairRejected: {Next: StateIdle, Advance: 1},
		Skipped:      {Next: StateIdle, Advance: 1},
	},
	StateAccumulating: {
		FrameAccepted: {Next: StateAccumulating, Advance: 1},
		FrameRejected: {Next: StateIdle, Advance: 0},
		Skipped:       {Next: StateAccumulating, Advance: 1},
	},
}

// Next looks up the transition for outcome in state.
func Next(state State, outcome Outcome) (Transition, bool) {
	t, ok := transitions[state][outcome]
	return t, ok
}

// Options tunes the loose-frame rescue applied when a new pair is rejected.
type Options struct {
	// LooseMinRegions is the region count a lone frame must exceed.
	LooseMinRegions int
	// LooseMinPrecision is the rounded precision a lone frame must exceed.
	LooseMinPrecision float64
}

// DefaultOptions returns the rescue thresholds: more than two regions at a
// precision above one half.
func DefaultOptions() Options {
	return Options{LooseMinRegions: 2, LooseMinPrecision: 0.5}
}

// Grouper runs the sequential similarity scan.
type Grouper struct {
	detector vision.Detector
	merger   vision.Merger
	opts     Options
	logger   *slog.Logger
}

// NewGrouper builds a Grouper around the given collaborators.
func NewGrouper(detector vision.Detector, merger vision.Merger, opts Options, logger *slog.Logger) *Grouper {
	return &Grouper{
		detector: detector,
		merger:   merger,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "grouper"),
	}
}

type scan struct {
	frames   []frames.Frame
	cursor   int
	state    State
	working  image.Image
	workDet  vision.Detection
	group    []frames.Frame
	segments []Segment
}

func (s *scan) reset() {
	s.working = nil
	s.workDet = vision.Detection{}
	s.group = nil
}

func (s *scan) emit(group []frames.Frame) {
	s.segments = append(s.segments, Segment{Frames: group})
}

// Group scans in and returns the emitted segments in order. Frames left in
// an unfinished group when the input runs out are discarded.
func (g *Grouper) Group(ctx context.Context, in []frames.Frame) ([]Segment, error) {
	if g.detector == nil || g.merger == nil {
		return nil, errors.New("grouper: detector and merger are required")
	}
	logger := logging.WithContext(ctx, g.logger)
	s := &scan{frames: in, state: StateIdle}

	for s.cursor < len(in) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			outcome Outcome
			err     error
		)
		switch {
		case s.state == StateIdle && s.cursor+2 < len(in):
			outcome, err = g.startPair(ctx, logger, s)
		case s.state == StateAccumulating && s.cursor+1 < len(in):
			outcome, err = g.extend(ctx, logger, s)
		default:
			outcome = Skipped
		}
		if err != nil {
			return nil, err
		}

		t, ok := Next(s.state, outcome)
		if !ok {
			return nil, fmt.Errorf("grouper: no transition from %s on %s", s.state, outcome)
		}
		s.state = t.Next
		s.cursor += t.Advance
	}

	if len(s.group) > 0 {
		logger.Debug("discarding unfinished group at end of input", logging.Int("frames", len(s.group)))
	}
	logger.Info("grouping complete",
		logging.Int("frames", len(in)),
		logging.Int("segments", len(s.segments)),
	)
	return s.segments, nil
}

func (g *Grouper) startPair(ctx context.Context, logger *slog.Logger, s *scan) (Outcome, error) {
	first, second := s.frames[s.cursor], s.frames[s.cursor+1]
	logger.Debug("starting new merge set",
		logging.Int("frame", s.cursor),
		logging.Int("total", len(s.frames)),
		logging.String("file", first.FileName),
	)

	firstDet, err := g.detector.Detect(ctx, first.Image)
	if err != nil {
		return 0, g.stepError(ErrDetection, s, err)
	}
	merged, err := g.merger.Merge(ctx, first.Image, second.Image)
	if err != nil {
		return 0, g.stepError(ErrMerge, s, err)
	}
	mergedDet, err := g.detector.Detect(ctx, merged)
	if err != nil {
		return 0, g.stepError(ErrDetection, s, err)
	}

	if IsNiceMerge(firstDet, mergedDet) {
		s.group = []frames.Frame{first, second}
		s.working = merged
		s.workDet = mergedDet
		return PairAccepted, nil
	}

	if g.isLooseFrame(firstDet) {
		logger.Debug("caught loose frame",
			logging.Int("frame", s.cursor),
			logging.Int("regions", len(firstDet.Regions)),
			logging.Float64("precision", firstDet.Precision),
		)
		s.emit([]frames.Frame{first})
	}
	s.reset()
	return PairRejected, nil
}

func (g *Grouper) extend(ctx context.Context, logger *slog.Logger, s *scan) (Outcome, error) {
	next := s.frames[s.cursor]
	logger.Debug("adding to merge set",
		logging.Int("frame", s.cursor),
		logging.Int("total", len(s.frames)),
		logging.Int("group_size", len(s.group)),
	)

	candidate, err := g.merger.Merge(ctx, s.working, next.Image)
	if err != nil {
		return 0, g.stepError(ErrMerge, s, err)
	}
	candidateDet, err := g.detector.Detect(ctx, candidate)
	if err != nil {
		return 0, g.stepError(ErrDetection, s, err)
	}

	if IsNiceMerge(s.workDet, candidateDet) {
		s.working = candidate
		s.workDet = candidateDet
		s.group = append(s.group, next)
		return FrameAccepted, nil
	}

	s.emit(s.group)
	s.reset()
	return FrameRejected, nil
}

func (g *Grouper) isLooseFrame(det vision.Detection) bool {
	return len(det.Regions) > g.opts.LooseMinRegions && Round3(det.Precision) > g.opts.LooseMinPrecision
}

func (g *Grouper) stepError(kind error, s *scan, err error) error {
	return &StepError{
		Kind:     kind,
		State:    s.state,
		Cursor:   s.cursor,
		FileName: s.frames[s.cursor].FileName,
		Err:      err,
	}
}
