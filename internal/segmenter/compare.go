package segmenter

import (
	"math"
	"strconv"
	"strings"

	"subseg/internal/vision"
)

// Round3 rounds v half-up at the third decimal digit of its shortest decimal
// form. Non-finite values round to 0.
func Round3(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	abs := math.Abs(v)
	if abs >= 1e15 {
		return v
	}
	text := strconv.FormatFloat(abs, 'f', -1, 64)
	whole, frac, _ := strings.Cut(text, ".")
	if len(frac) <= 3 {
		return v
	}
	scaled, err := strconv.ParseInt(whole+frac[:3], 10, 64)
	if err != nil {
		return 0
	}
	if frac[3] >= '5' {
		scaled++
	}
	out := float64(scaled) / 1000
	if v < 0 {
		out = -out
	}
	return out
}

// Overlaps reports whether an edge of either enclosing box lies inside the
// other box's span on the Y or X axis. Corners are rounded to whole pixels.
// This is corner containment, not rectangle intersection.
func Overlaps(a, b vision.Detection) bool {
	if a.Empty() || b.Empty() {
		return false
	}
	aTop, aBottom := math.Round(a.TopLeft.Y), math.Round(a.BottomRight.Y)
	bTop, bBottom := math.Round(b.TopLeft.Y), math.Round(b.BottomRight.Y)
	aLeft, aRight := math.Round(a.TopLeft.X), math.Round(a.BottomRight.X)
	bLeft, bRight := math.Round(b.TopLeft.X), math.Round(b.BottomRight.X)

	switch {
	case within(aTop, bTop, bBottom),
		within(aBottom, bTop, bBottom),
		within(bTop, aTop, aBottom),
		within(bBottom, aTop, aBottom),
		within(bLeft, aLeft, aRight),
		within(bRight, aLeft, aRight),
		within(aLeft, bLeft, bRight),
		within(aRight, bLeft, bRight):
		return true
	}
	return false
}

func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// IsNiceMerge decides whether after, the detection of a merged image, still
// describes the subtitle seen in before.
//
// The boxes must overlap and the rounded precision must not drop. A merge
// whose region count did not shrink at held or better precision is a dive and
// is rejected.
func IsNiceMerge(before, after vision.Detection) bool {
	overlap := Overlaps(before, after)
	precisionOK := Round3(after.Precision) >= Round3(before.Precision)

	dive := false
	if precisionOK {
		dive = len(after.Regions) >= len(before.Regions)
	}

	return overlap && precisionOK && !dive
}
