// Package vision holds the image-level collaborators used by the segmenter.
//
// It defines the Detection result produced for a single image, the Detector,
// Merger and Filter contracts, and the built-in implementations: a luminance
// text-region detector, a lighten-composite merger, and a clip-out filter that
// crops an image to its detected text. An OpenCV-backed detector is available
// when the module is built with the gocv tag.
package vision
