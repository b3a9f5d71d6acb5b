//go:build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// OpenCVDetector finds text regions with a morphological-gradient pipeline:
// grayscale, gradient, Otsu threshold, horizontal closing, external contours.
// Precision is the mean share of gradient pixels inside each kept box.
type OpenCVDetector struct {
	MinArea int
	JoinGap int
}

func newOpenCVDetector(opts DetectorOptions) (Detector, error) {
	return OpenCVDetector{MinArea: opts.MinArea, JoinGap: opts.JoinGap}, nil
}

func (d OpenCVDetector) Detect(ctx context.Context, img image.Image) (Detection, error) {
	if img == nil {
		return Detection{}, errors.New("opencv detect: nil image")
	}
	if err := ctx.Err(); err != nil {
		return Detection{}, err
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return Detection{}, fmt.Errorf("opencv detect: convert image: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorRGBToGray)

	ellipse := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3))
	defer ellipse.Close()
	grad := gocv.NewMat()
	defer grad.Close()
	gocv.MorphologyEx(gray, &grad, gocv.MorphGradient, ellipse)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(grad, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	joinWidth := max(d.JoinGap*2+1, 3)
	rect := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(joinWidth, 1))
	defer rect.Close()
	connected := gocv.NewMat()
	defer connected.Close()
	gocv.MorphologyEx(binary, &connected, gocv.MorphClose, rect)

	contours := gocv.FindContours(connected, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	offset := img.Bounds().Min
	var regions []Region
	var fillSum float64
	for i := 0; i < contours.Size(); i++ {
		box := gocv.BoundingRect(contours.At(i))
		area := box.Dx() * box.Dy()
		if area == 0 || area < d.MinArea {
			continue
		}
		roi := binary.Region(box)
		fillSum += float64(gocv.CountNonZero(roi)) / float64(area)
		roi.Close()
		regions = append(regions, Region{
			Min: Point{X: float64(offset.X + box.Min.X), Y: float64(offset.Y + box.Min.Y)},
			Max: Point{X: float64(offset.X + box.Max.X), Y: float64(offset.Y + box.Max.Y)},
		})
	}
	if len(regions) == 0 {
		return NewDetection(nil, 0), nil
	}
	return NewDetection(regions, fillSum/float64(len(regions))), nil
}
