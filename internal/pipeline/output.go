package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"subseg/internal/logging"
	"subseg/internal/segmenter"
)

func (r *Runner) writeOutputs(ctx context.Context, report *Report, reducer segmenter.Reducer, segments []segmenter.Segment) error {
	logger := logging.WithContext(ctx, r.logger)
	if err := os.MkdirAll(report.Output, 0o755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	report.Segments = make([]SegmentResult, 0, len(segments))
	for i, seg := range segments {
		result := SegmentResult{
			Index:   i,
			StartMS: seg.Start().Milliseconds(),
			EndMS:   seg.End().Milliseconds(),
			Frames:  seg.FileNames(),
		}
		if r.cfg.Output.WriteImages {
			frame, err := reducer.Reduce(ctx, seg)
			if err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			path := filepath.Join(report.Output, imageName(result))
			if err := writePNG(path, frame.Image); err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			result.Image = path
		}
		logger.Debug("segment written",
			logging.Int("index", i),
			logging.Int64("start_ms", result.StartMS),
			logging.Int64("end_ms", result.EndMS),
			logging.Int("frames", len(result.Frames)),
		)
		report.Segments = append(report.Segments, result)
	}

	return writeManifest(filepath.Join(report.Output, r.cfg.Output.ManifestName), report)
}

func imageName(seg SegmentResult) string {
	return fmt.Sprintf("%04d_%d-%d.png", seg.Index, seg.StartMS, seg.EndMS)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode image: %w", err)
	}
	return f.Close()
}

type manifest struct {
	RunID     string          `json:"run_id"`
	Source    string          `json:"source"`
	Frames    int             `json:"frames"`
	PreMerged int             `json:"pre_merged"`
	Segments  []SegmentResult `json:"segments"`
}

func writeManifest(path string, report *Report) error {
	data, err := json.MarshalIndent(manifest{
		RunID:     report.RunID,
		Source:    report.Source,
		Frames:    report.Frames,
		PreMerged: report.PreMerged,
		Segments:  report.Segments,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
