// Package main hosts the subseg CLI entrypoint and command graph.
//
// The Cobra-based command tree runs segmentation jobs over extracted frame
// directories, browses the run history, and scaffolds configuration. It
// centralizes configuration resolution and logger construction so subcommands
// stay thin; the segmentation work itself lives in internal/pipeline.
package main
