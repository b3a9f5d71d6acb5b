// Package config loads, normalizes, and validates subseg configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI and the segmentation pipeline need: output and state directories, frame
// timing, grouping thresholds, the detection engine, and log output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
