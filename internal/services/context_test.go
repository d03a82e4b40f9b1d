package services_test

import (
	"context"
	"testing"

	"tutorialpub/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithPath(ctx, "index.md")
	ctx = services.WithPackage(ctx, "near-101")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if path, ok := services.PathFromContext(ctx); !ok || path != "index.md" {
		t.Fatalf("unexpected path: %v %v", path, ok)
	}
	if slug, ok := services.PackageFromContext(ctx); !ok || slug != "near-101" {
		t.Fatalf("unexpected package: %v %v", slug, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPath(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.PathFromContext(ctx); ok {
		t.Fatal("expected no path value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
