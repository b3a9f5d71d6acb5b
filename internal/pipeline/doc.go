// Package pipeline runs one segmentation job end to end.
//
// A Runner loads a frame directory, optionally pre-merges adjacent frames,
// groups the sequence into subtitle segments, reduces each segment to a
// representative image, and writes the images plus a JSON manifest into a
// per-run output directory. Runs hold an advisory lock on the output root and
// are recorded in the history store when one is attached.
package pipeline
