package vision

import (
	"context"
	"image"
)

// Point is an image coordinate. Detectors may report sub-pixel positions.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Region is a single detected text rectangle.
type Region struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Detection is the text-region statistics for one image.
//
// TopLeft and BottomRight enclose every region. They carry no meaning when
// Regions is empty.
type Detection struct {
	Regions     []Region `json:"regions"`
	Precision   float64  `json:"precision"`
	TopLeft     Point    `json:"top_left"`
	BottomRight Point    `json:"bottom_right"`
}

// NewDetection builds a Detection and computes its enclosing corners.
func NewDetection(regions []Region, precision float64) Detection {
	det := Detection{Regions: regions, Precision: precision}
	for i, r := range regions {
		if i == 0 {
			det.TopLeft = r.Min
			det.BottomRight = r.Max
			continue
		}
		det.TopLeft.X = min(det.TopLeft.X, r.Min.X)
		det.TopLeft.Y = min(det.TopLeft.Y, r.Min.Y)
		det.BottomRight.X = max(det.BottomRight.X, r.Max.X)
		det.BottomRight.Y = max(det.BottomRight.Y, r.Max.Y)
	}
	return det
}

// Empty reports whether no text regions were found.
func (d Detection) Empty() bool {
	return len(d.Regions) == 0
}

// Bounds returns the enclosing corners as an integer rectangle.
func (d Detection) Bounds() image.Rectangle {
	if d.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(int(d.TopLeft.X), int(d.TopLeft.Y), int(d.BottomRight.X+0.5), int(d.BottomRight.Y+0.5))
}

// Detector returns text-region statistics for an image. Implementations must
// be deterministic for a given image.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (Detection, error)
}

// Merger composites two or more images into one canvas.
type Merger interface {
	Merge(ctx context.Context, images ...image.Image) (image.Image, error)
}

// Filter post-processes a representative image before it is written.
type Filter interface {
	Apply(ctx context.Context, img image.Image) (image.Image, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, img image.Image) (Detection, error)

func (f DetectorFunc) Detect(ctx context.Context, img image.Image) (Detection, error) {
	return f(ctx, img)
}

// MergerFunc adapts a function to the Merger interface.
type MergerFunc func(ctx context.Context, images ...image.Image) (image.Image, error)

func (f MergerFunc) Merge(ctx context.Context, images ...image.Image) (image.Image, error) {
	return f(ctx, images...)
}
