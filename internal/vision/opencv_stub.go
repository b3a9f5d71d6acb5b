//go:build !gocv

package vision

func newOpenCVDetector(DetectorOptions) (Detector, error) {
	return nil, ErrOpenCVUnavailable
}
