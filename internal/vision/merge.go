package vision

import (
	"context"
	"errors"
	"image"
	"image/color"
)

// LightenMerger composites images by keeping the brightest value of every
// channel. The canvas is the union of all input bounds, so regions found in
// an earlier composite keep their position in later ones.
type LightenMerger struct{}

func (LightenMerger) Merge(ctx context.Context, images ...image.Image) (image.Image, error) {
	if len(images) == 0 {
		return nil, errors.New("lighten merge: no images")
	}
	canvas := image.Rectangle{}
	for i, img := range images {
		if img == nil {
			return nil, errors.New("lighten merge: nil image")
		}
		if i == 0 {
			canvas = img.Bounds()
			continue
		}
		canvas = canvas.Union(img.Bounds())
	}

	out := image.NewRGBA(canvas)
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
				cur := out.RGBAAt(x, y)
				out.SetRGBA(x, y, color.RGBA{
					R: max(cur.R, c.R),
					G: max(cur.G, c.G),
					B: max(cur.B, c.B),
					A: max(cur.A, c.A),
				})
			}
		}
	}
	return out, nil
}
