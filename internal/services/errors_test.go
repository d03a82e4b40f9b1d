package services_test

import (
	"errors"
	"strings"
	"testing"

	"tutorialpub/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrUpload, "httpstore", "upload", "gateway rejected", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"httpstore", "upload", "gateway rejected"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestRunFatalClassification(t *testing.T) {
	cases := []struct {
		err   error
		fatal bool
		kind  string
	}{
		{services.Wrap(services.ErrManifestCorrupt, "manifest", "read", "", errors.New("bad json")), true, "manifest_corrupt"},
		{services.Wrap(services.ErrStateRejected, "publish", "gate", "funded", nil), true, "state_rejected"},
		{services.Wrap(services.ErrManifestLocked, "manifest", "lock", "", nil), true, "manifest_locked"},
		{services.Wrap(services.ErrUpload, "httpstore", "upload", "", nil), false, "upload"},
		{services.Wrap(services.ErrReconcile, "reconcile", "write", "", nil), false, "reconcile"},
		{services.Wrap(services.ErrIO, "digest", "read", "", nil), false, "io"},
		{nil, false, ""},
	}
	for _, tc := range cases {
		if got := services.RunFatal(tc.err); got != tc.fatal {
			t.Fatalf("RunFatal(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
		if got := services.Kind(tc.err); got != tc.kind {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.kind)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestStatusErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		class  error
	}{
		{401, services.ErrAuth},
		{403, services.ErrAuth},
		{404, services.ErrNotFound},
		{429, services.ErrTransient},
		{503, services.ErrTransient},
	}
	for _, tt := range tests {
		err := services.StatusError(services.ErrUpload, "httpstore", "upload", tt.status, "nope")
		if !errors.Is(err, services.ErrUpload) {
			t.Errorf("status %d: missing marker: %v", tt.status, err)
		}
		if !errors.Is(err, tt.class) {
			t.Errorf("status %d: expected class %v, got %v", tt.status, tt.class, err)
		}
	}

	err := services.StatusError(services.ErrUpload, "httpstore", "upload", 400, "")
	if errors.Is(err, services.ErrTransient) || errors.Is(err, services.ErrAuth) {
		t.Fatalf("400 should carry no class: %v", err)
	}
}
