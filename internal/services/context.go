package services

import "context"

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	pathKey    contextKey = "path"
	packageKey contextKey = "package"
)

// WithRunID annotates context with the publish run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the publish run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPath annotates context with the package-relative file path being processed.
func WithPath(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, pathKey, path)
}

// PathFromContext returns the file path if present.
func PathFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(pathKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPackage annotates context with the package slug.
func WithPackage(ctx context.Context, slug string) context.Context {
	if slug == "" {
		return ctx
	}
	return context.WithValue(ctx, packageKey, slug)
}

// PackageFromContext returns the package slug if present.
func PackageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(packageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
