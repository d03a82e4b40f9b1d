package logging

import (
	"context"
	"log/slog"

	"tutorialpub/internal/services"
)

// Standard field keys. The console handler moves component, package and
// path into the line header.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldPackage   = "package"
	FieldPath      = "path"
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact states the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// WithContext tags logger with the run id, package slug and file path
// carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = discard()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.RunIDFromContext(ctx); ok {
		args = append(args, FieldRunID, id)
	}
	if slug, ok := services.PackageFromContext(ctx); ok {
		args = append(args, FieldPackage, slug)
	}
	if path, ok := services.PathFromContext(ctx); ok {
		args = append(args, FieldPath, path)
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
