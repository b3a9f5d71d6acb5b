package vision

import (
	"context"
	"errors"
	"image"
	"image/color"
)

// LuminanceDetector finds bright text blobs on a darker background, the usual
// look of burned-in broadcast subtitles.
//
// Pixels at or above Threshold count as ink. Ink is joined horizontally across
// gaps of up to JoinGap pixels so glyphs of one word form a single component,
// and components whose bounding box is smaller than MinArea are discarded as
// noise. Precision is the share of all ink that ended up inside a kept region.
type LuminanceDetector struct {
	Threshold uint8
	MinArea   int
	JoinGap   int
}

func (d LuminanceDetector) Detect(ctx context.Context, img image.Image) (Detection, error) {
	if img == nil {
		return Detection{}, errors.New("luminance detect: nil image")
	}
	if err := ctx.Err(); err != nil {
		return Detection{}, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return NewDetection(nil, 0), nil
	}

	ink := make([]bool, w*h)
	total := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			if g.Y >= d.Threshold {
				ink[y*w+x] = true
				total++
			}
		}
	}
	if total == 0 {
		return NewDetection(nil, 0), nil
	}
	if err := ctx.Err(); err != nil {
		return Detection{}, err
	}

	joined := dilateRows(ink, w, h, d.JoinGap)
	visited := make([]bool, w*h)
	var regions []Region
	covered := 0
	queue := make([]int, 0, 64)

	for start := range joined {
		if !joined[start] || visited[start] {
			continue
		}
		visited[start] = true
		queue = append(queue[:0], start)
		minX, minY := w, h
		maxX, maxY := -1, -1
		inkCount := 0

		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%w, idx/w
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			if ink[idx] {
				inkCount++
			}
			for _, n := range [4]int{idx - 1, idx + 1, idx - w, idx + w} {
				if n < 0 || n >= len(joined) || visited[n] || !joined[n] {
					continue
				}
				// Left/right neighbours must stay on the same row.
				if (n == idx-1 || n == idx+1) && n/w != y {
					continue
				}
				visited[n] = true
				queue = append(queue, n)
			}
		}

		area := (maxX - minX + 1) * (maxY - minY + 1)
		if area < d.MinArea {
			continue
		}
		covered += inkCount
		regions = append(regions, Region{
			Min: Point{X: float64(bounds.Min.X + minX), Y: float64(bounds.Min.Y + minY)},
			Max: Point{X: float64(bounds.Min.X + maxX + 1), Y: float64(bounds.Min.Y + maxY + 1)},
		})
	}

	return NewDetection(regions, float64(covered)/float64(total)), nil
}

func dilateRows(mask []bool, w, h, gap int) []bool {
	if gap <= 0 {
		return mask
	}
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		row := mask[y*w : (y+1)*w]
		last := -1
		for x, set := range row {
			if !set {
				continue
			}
			if last >= 0 && x-last-1 <= gap {
				for fill := last + 1; fill < x; fill++ {
					out[y*w+fill] = true
				}
			}
			out[y*w+x] = true
			last = x
		}
	}
	return out
}
