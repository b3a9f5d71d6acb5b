package segmenter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"subseg/internal/frames"
	"subseg/internal/logging"
	"subseg/internal/services"
	"subseg/internal/vision"
)

// PairMerger merges adjacent frames once, halving the sequence before the
// grouping scan.
type PairMerger struct {
	merger      vision.Merger
	workers     int
	taskTimeout time.Duration
	logger      *slog.Logger
}

// NewPairMerger builds a PairMerger running at most workers merges at once.
// A zero taskTimeout disables the per-pair deadline.
func NewPairMerger(merger vision.Merger, workers int, taskTimeout time.Duration, logger *slog.Logger) *PairMerger {
	if workers < 1 {
		workers = 1
	}
	return &PairMerger{
		merger:      merger,
		workers:     workers,
		taskTimeout: taskTimeout,
		logger:      logging.NewComponentLogger(logger, "premerge"),
	}
}

// MergePairs merges frames (k, k+1) for every pair and returns one frame per
// pair in input order. When the input length is odd the leading frame has no
// partner and is dropped.
//
// The call waits for every task. If any pair fails, no frames are returned and
// the error joins one *PairError per failed pair, ordered by pair index.
func (p *PairMerger) MergePairs(ctx context.Context, in []frames.Frame) ([]frames.Frame, error) {
	if p.merger == nil {
		return nil, errors.New("pre-merge: merger not configured")
	}
	offset := len(in) % 2
	pairs := len(in) / 2
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("pre-merging frames",
		logging.Int("frames", len(in)),
		logging.Int("pairs", pairs),
		logging.Int("workers", min(p.workers, pairs)),
	)
	if offset == 1 {
		logger.Debug("dropping unpaired leading frame", logging.String("file", in[0].FileName))
	}
	if pairs == 0 {
		return nil, nil
	}

	results := make([]frames.Frame, pairs)
	failures := make([]error, pairs)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(p.workers, pairs); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range jobs {
				left, right := in[offset+2*k], in[offset+2*k+1]
				if err := ctx.Err(); err != nil {
					failures[k] = &PairError{Index: k, Left: left.FileName, Right: right.FileName, Err: err}
					continue
				}
				merged, err := p.mergePair(ctx, left, right)
				if err != nil {
					failures[k] = &PairError{Index: k, Left: left.FileName, Right: right.FileName, Err: err}
					continue
				}
				results[k] = merged
			}
		}()
	}

submit:
	for k := 0; k < pairs; k++ {
		select {
		case jobs <- k:
		case <-ctx.Done():
			for rest := k; rest < pairs; rest++ {
				left, right := in[offset+2*rest], in[offset+2*rest+1]
				failures[rest] = &PairError{Index: rest, Left: left.FileName, Right: right.FileName, Err: ctx.Err()}
			}
			break submit
		}
	}
	close(jobs)
	wg.Wait()

	var errs []error
	for _, err := range failures {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		logging.ErrorWithContext(logger, "pre-merge failed", "premerge_failed",
			logging.Int("failed_pairs", len(errs)),
			logging.Int("pairs", pairs),
			logging.Error(errs[0]),
		)
		return nil, errors.Join(errs...)
	}
	return results, nil
}

func (p *PairMerger) mergePair(ctx context.Context, left, right frames.Frame) (frames.Frame, error) {
	taskCtx := ctx
	if p.taskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, p.taskTimeout)
		defer cancel()
	}

	type outcome struct {
		img image.Image
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		img, err := p.merger.Merge(taskCtx, left.Image, right.Image)
		done <- outcome{img: img, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return frames.Frame{}, fmt.Errorf("%w: %w", ErrMerge, res.err)
		}
		return frames.Frame{
			Image:    res.img,
			Start:    left.Start,
			End:      right.End,
			FileName: left.FileName + "+" + right.FileName,
		}, nil
	case <-taskCtx.Done():
		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return frames.Frame{}, services.Wrap(services.ErrTimeout, "pre-merge", "merge", fmt.Sprintf("exceeded %s", p.taskTimeout), taskCtx.Err())
		}
		return frames.Frame{}, taskCtx.Err()
	}
}
