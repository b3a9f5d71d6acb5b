package testsupport

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// Box is a white rectangle drawn onto a synthetic frame.
type Box struct {
	X, Y, W, H int
}

// FrameImage renders a black width x height frame with the given white boxes,
// which the luminance detector reports as text regions.
func FrameImage(width, height int, boxes ...Box) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.Black)
		}
	}
	for _, b := range boxes {
		for y := b.Y; y < b.Y+b.H && y < height; y++ {
			for x := b.X; x < b.X+b.W && x < width; x++ {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

// WritePNG encodes img to path, creating parent directories as needed.
func WritePNG(t testing.TB, path string, img image.Image) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// WriteFrames writes one PNG per image into dir as frame_0000.png,
// frame_0001.png, and so on, and returns the directory.
func WriteFrames(t testing.TB, dir string, imgs ...image.Image) string {
	t.Helper()

	for i, img := range imgs {
		WritePNG(t, filepath.Join(dir, frameName(i)), img)
	}
	return dir
}

func frameName(i int) string {
	return fmt.Sprintf("frame_%04d.png", i)
}
