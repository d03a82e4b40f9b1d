// Package manifest persists the per-file publish state of a tutorial package.
//
// The manifest is a JSON file at the package root mapping each content path to
// its last uploaded digest and storage reference, plus package-level proposal
// fields. Store serializes every mutation through one in-memory copy and
// flushes it with a temp-file rename after each file, so a crash loses at most
// the file in flight. A flock-based advisory lock keeps two publish processes
// from racing on the same package.
package manifest
