package segmenter_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"subseg/internal/frames"
	"subseg/internal/vision"
)

// taggedImage lets the fakes recognise which frames went into a composite.
type taggedImage struct {
	image.Image
	tag string
}

func tagged(tag string) image.Image {
	return taggedImage{Image: image.NewGray(image.Rect(0, 0, 1, 1)), tag: tag}
}

func tagOf(img image.Image) string {
	if t, ok := img.(taggedImage); ok {
		return t.tag
	}
	return "?"
}

// makeFrames returns n frames tagged f0..fn-1, each one second long.
func makeFrames(n int) []frames.Frame {
	out := make([]frames.Frame, n)
	for i := range out {
		name := fmt.Sprintf("f%d", i)
		out[i] = frames.Frame{
			Image:    tagged(name),
			Start:    time.Duration(i) * time.Second,
			End:      time.Duration(i+1) * time.Second,
			FileName: name + ".png",
		}
	}
	return out
}

// det builds a detection with n identical boxes so every pair overlaps.
func det(n int, precision float64) vision.Detection {
	regions := make([]vision.Region, n)
	for i := range regions {
		regions[i] = vision.Region{Min: vision.Point{X: 10, Y: 100}, Max: vision.Point{X: 200, Y: 120}}
	}
	return vision.NewDetection(regions, precision)
}

// tagMerger joins tags with "+" so composites are predictable.
type tagMerger struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (m *tagMerger) Merge(_ context.Context, images ...image.Image) (image.Image, error) {
	tags := make([]string, len(images))
	for i, img := range images {
		tags[i] = tagOf(img)
	}
	joined := strings.Join(tags, "+")
	m.mu.Lock()
	m.calls = append(m.calls, joined)
	m.mu.Unlock()
	if err, ok := m.fail[joined]; ok {
		return nil, err
	}
	return tagged(joined), nil
}

// scriptDetector answers from a table keyed by image tag.
type scriptDetector struct {
	mu       sync.Mutex
	script   map[string]vision.Detection
	fail     map[string]error
	fallback *vision.Detection
	calls    []string
}

func (d *scriptDetector) Detect(_ context.Context, img image.Image) (vision.Detection, error) {
	tag := tagOf(img)
	d.mu.Lock()
	d.calls = append(d.calls, tag)
	d.mu.Unlock()
	if err, ok := d.fail[tag]; ok {
		return vision.Detection{}, err
	}
	if result, ok := d.script[tag]; ok {
		return result, nil
	}
	if d.fallback != nil {
		return *d.fallback, nil
	}
	return vision.Detection{}, errors.New("no scripted detection for " + tag)
}
