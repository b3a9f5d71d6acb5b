package vision

import (
	"context"
	"errors"
	"image"
	"image/draw"
)

// ClipFilter crops an image to the area around its detected text.
type ClipFilter struct {
	Detector Detector
	Margin   int
}

// Apply returns a detached copy of img cropped to the detected text plus
// Margin pixels. Images without text are returned unchanged.
func (f ClipFilter) Apply(ctx context.Context, img image.Image) (image.Image, error) {
	if f.Detector == nil {
		return nil, errors.New("clip filter: detector not configured")
	}
	det, err := f.Detector.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	if det.Empty() {
		return img, nil
	}
	rect := det.Bounds().Inset(-f.Margin).Intersect(img.Bounds())
	if rect.Empty() {
		return img, nil
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out, nil
}
