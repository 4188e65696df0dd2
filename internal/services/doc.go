// Package services defines shared utilities consumed by the curation pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp queue item IDs, stage names, content
//     references, and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent queue statuses and error classes.
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform.
package services
