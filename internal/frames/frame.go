package frames

import (
	"image"
	"time"
)

// Frame is a single extracted image plus its temporal placement.
type Frame struct {
	Image    image.Image
	Start    time.Duration
	End      time.Duration
	FileName string
}

// Span returns the frame duration.
func (f Frame) Span() time.Duration {
	return f.End - f.Start
}
