// Package frames loads extracted video frames into the ordered Frame sequence
// consumed by the segmenter.
//
// Frames come from a directory of still images sorted by file name. Timing is
// taken from an optional JSON manifest next to the images, or derived from a
// fixed frame interval when no manifest exists.
package frames
