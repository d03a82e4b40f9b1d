// Package publish orchestrates a publish run for one tutorial package.
//
// A run locks and reads the manifest, confirms the package's remote state
// permits publishing, plans which files need uploading, then processes every
// file on a bounded worker pool: upload when the bytes changed, record the new
// digest and reference in the manifest, flush it, and reconcile the metadata
// document. Per-file failures are isolated and reported in RunResult; only
// conditions that make the whole run unsafe are returned as errors.
//
// Prepare mirrors the package's proposal fields into the manifest and
// refreshes digests without uploading. Plan is a read-only dry run.
package publish
