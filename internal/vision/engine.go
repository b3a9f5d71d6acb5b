package vision

import (
	"errors"
	"fmt"
	"strings"
)

const (
	EngineLuminance = "luminance"
	EngineOpenCV    = "opencv"
)

// ErrOpenCVUnavailable is returned when the opencv engine is requested from a
// binary built without the gocv tag.
var ErrOpenCVUnavailable = errors.New("opencv detector not compiled in (rebuild with -tags gocv)")

// DetectorOptions configures the built-in detectors.
type DetectorOptions struct {
	Threshold uint8
	MinArea   int
	JoinGap   int
}

// NewDetector returns the detector for the named engine.
func NewDetector(engine string, opts DetectorOptions) (Detector, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineLuminance:
		return LuminanceDetector{Threshold: opts.Threshold, MinArea: opts.MinArea, JoinGap: opts.JoinGap}, nil
	case EngineOpenCV:
		return newOpenCVDetector(opts)
	default:
		return nil, fmt.Errorf("detection engine: unsupported value %q", engine)
	}
}
