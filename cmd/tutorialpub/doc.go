// Package main hosts the tutorialpub CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the storage,
// metadata and proposal backends it names, and hands package directories to
// the publish pipeline. Output is a table on terminals, plain lines when
// piped, or JSON with --json.
//
// Keep this package thin: behavior belongs in internal/publish and the
// backend packages, and commands here only translate flags and render
// results.
package main
