// Package logging builds the slog loggers used across tutorialpub.
//
// Console output puts the component and the package/file being worked on in
// the line header; JSON output keeps every field as a key. WithContext tags
// a logger with the run id, package slug and path stored on a context.
package logging
