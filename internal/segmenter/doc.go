// Package segmenter groups consecutive subtitle frames into segments.
//
// Three pieces cooperate:
//   - the comparator (Overlaps, IsNiceMerge, Round3) decides whether a merged
//     image still shows the same subtitle as the image it grew from;
//   - PairMerger halves a frame sequence by merging adjacent pairs on a
//     bounded worker pool, keeping results in pair order;
//   - Grouper scans the sequence with an Idle/Accumulating state machine,
//     growing a working composite while merges stay nice and emitting a
//     Segment when they stop.
//
// Reducer turns a Segment into the single representative frame handed to
// recognition. Detection and merging are delegated to vision.Detector and
// vision.Merger; failures from either abort the scan.
package segmenter
