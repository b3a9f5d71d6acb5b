// Package services defines shared utilities consumed by the pipeline stages
// and the vision collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     as external-tool, validation, configuration, or timeout problems.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
