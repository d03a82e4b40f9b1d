// Package services defines shared utilities consumed by the publish pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, package slugs, and file paths for
//     logging.
//   - Structured error markers plus the Wrap helper that let the orchestrator
//     tell per-file failures (io, upload, reconcile) apart from failures that
//     abort the whole run (state rejected, manifest corrupt or locked).
//
// Use these helpers when wiring new store clients so failure classification
// stays uniform across the pipeline.
package services
