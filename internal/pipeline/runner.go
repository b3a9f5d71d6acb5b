package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"subseg/internal/config"
	"subseg/internal/frames"
	"subseg/internal/history"
	"subseg/internal/logging"
	"subseg/internal/segmenter"
	"subseg/internal/services"
	"subseg/internal/vision"
)

const lockFileName = ".subseg.lock"

// ErrBusy indicates another run holds the output lock.
var ErrBusy = errors.New("output directory is locked by another run")

// Runner executes segmentation runs against one configuration.
type Runner struct {
	cfg      *config.Config
	store    *history.Store
	detector vision.Detector
	merger   vision.Merger
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithHistory records every run in store.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithDetector replaces the configured detection engine.
func WithDetector(d vision.Detector) Option {
	return func(r *Runner) { r.detector = d }
}

// WithMerger replaces the default lighten merger.
func WithMerger(m vision.Merger) Option {
	return func(r *Runner) { r.merger = m }
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New builds a Runner. The detector comes from cfg.Detection unless WithDetector is given.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "config is required", nil)
	}
	r := &Runner{
		cfg:    cfg,
		merger: vision.LightenMerger{},
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "pipeline")
	if r.detector == nil {
		det, err := vision.NewDetector(cfg.Detection.Engine, vision.DetectorOptions{
			Threshold: uint8(cfg.Detection.LuminanceThreshold),
			MinArea:   cfg.Detection.MinRegionArea,
			JoinGap:   cfg.Detection.JoinGap,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init detector", "", err)
		}
		r.detector = det
	}
	return r, nil
}

// Run segments the frames in sourceDir and writes the results under the
// configured output root.
func (r *Runner) Run(ctx context.Context, sourceDir string) (*Report, error) {
	runID := r.newID()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	root := r.cfg.Paths.OutputDir
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	lockPath := filepath.Join(root, lockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBusy, lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release output lock", logging.String("lock", lockPath), logging.Error(err))
		}
	}()

	started := r.now()
	if r.store != nil {
		if err := r.store.BeginRun(ctx, runID, sourceDir, started); err != nil {
			return nil, fmt.Errorf("record run start: %w", err)
		}
	}
	logger.Info("segmentation started",
		logging.String("source", sourceDir),
		logging.String("output_root", root),
	)

	report := &Report{RunID: runID, Source: sourceDir, Output: filepath.Join(root, runID)}
	if err := r.execute(ctx, report); err != nil {
		r.recordFailure(ctx, logger, report, err)
		return nil, err
	}
	finished := r.now()
	report.Elapsed = finished.Sub(started)

	if r.store != nil {
		if err := r.store.FinishRun(ctx, runID, summarize(report), finished); err != nil {
			err = fmt.Errorf("record run finish: %w", err)
			r.recordFailure(ctx, logger, report, err)
			return nil, err
		}
	}
	logger.Info("segmentation completed",
		logging.Int("frames", report.Frames),
		logging.Int("segments", len(report.Segments)),
		logging.Duration("elapsed", report.Elapsed),
		logging.String("output", report.Output),
	)
	return report, nil
}

func (r *Runner) execute(ctx context.Context, report *Report) error {
	loadCtx := services.WithStage(ctx, "load")
	seq, err := frames.LoadDir(report.Source, frames.Options{
		Extensions: r.cfg.Frames.Extensions,
		Interval:   r.cfg.FrameInterval(),
		Manifest:   r.cfg.Frames.Manifest,
	})
	if err != nil {
		return services.Wrap(services.ErrValidation, "load", "read frames", report.Source, err)
	}
	report.Frames = len(seq)
	logging.WithContext(loadCtx, r.logger).Info("frames loaded", logging.Int("frames", len(seq)))

	if r.cfg.Grouping.PreMerge {
		premerger := segmenter.NewPairMerger(r.merger, r.cfg.Grouping.Workers, r.cfg.TaskTimeout(), r.logger)
		seq, err = premerger.MergePairs(services.WithStage(ctx, "pre-merge"), seq)
		if err != nil {
			return err
		}
		report.PreMerged = len(seq)
	}

	grouper := segmenter.NewGrouper(r.detector, r.merger, segmenter.Options{
		LooseMinRegions:   r.cfg.Grouping.LooseMinRegions,
		LooseMinPrecision: r.cfg.Grouping.LooseMinPrecision,
	}, r.logger)
	segments, err := grouper.Group(services.WithStage(ctx, "group"), seq)
	if err != nil {
		return err
	}

	reducer := segmenter.Reducer{Merger: r.merger}
	if r.cfg.Output.Clip {
		reducer.Filter = vision.ClipFilter{Detector: r.detector, Margin: r.cfg.Output.ClipMargin}
	}
	return r.writeOutputs(services.WithStage(ctx, "write"), report, reducer, segments)
}

func (r *Runner) recordFailure(ctx context.Context, logger *slog.Logger, report *Report, cause error) {
	logging.ErrorWithContext(logger, "segmentation failed", "run_failed",
		logging.String(logging.FieldErrorHint, "check the frame directory and detection settings"),
		logging.String("kind", services.Classify(cause)),
		logging.Error(cause),
	)
	if r.store == nil {
		return
	}
	// Record the failure even when ctx was cancelled.
	if err := r.store.FailRun(context.WithoutCancel(ctx), report.RunID, report.Frames, cause, r.now()); err != nil {
		logger.Warn("failed to record run failure", logging.Error(err))
	}
}

func summarize(report *Report) history.Summary {
	records := make([]history.SegmentRecord, len(report.Segments))
	for i, seg := range report.Segments {
		records[i] = history.SegmentRecord{
			Seq:        seg.Index,
			Start:      seg.Start(),
			End:        seg.End(),
			FrameCount: len(seg.Frames),
			ImagePath:  seg.Image,
		}
	}
	return history.Summary{
		OutputDir: report.Output,
		Frames:    report.Frames,
		PreMerged: report.PreMerged,
		Segments:  records,
	}
}
