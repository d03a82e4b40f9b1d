package plan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tutorialpub/internal/content"
	"tutorialpub/internal/digest"
	"tutorialpub/internal/manifest"
	"tutorialpub/internal/services"
)

func TestBuildPolicy(t *testing.T) {
	d1 := digest.Bytes([]byte("one"))
	d2 := digest.Bytes([]byte("two"))

	m := manifest.New("pkg")
	m.Content["uploaded.md"] = manifest.TrackedFile{Path: "uploaded.md", Name: "U"}.WithUpload(d1, "tx-1")
	m.Content["changed.md"] = manifest.TrackedFile{Path: "changed.md", Name: "C"}.WithUpload(d1, "tx-2")
	m.Content["digest-only.md"] = manifest.TrackedFile{Path: "digest-only.md", Name: "D"}.WithDigest(d1)

	files := []content.File{
		{Path: "uploaded.md"},
		{Path: "changed.md"},
		{Path: "digest-only.md"},
		{Path: "new.md", Name: "New"},
	}
	digests := map[string]string{
		"uploaded.md":    d1,
		"changed.md":     d2,
		"digest-only.md": d1,
		"new.md":         d1,
	}

	changes := Build(m, files, digests, Options{})
	if len(changes) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(changes))
	}

	want := map[string]bool{
		"uploaded.md":    true,
		"changed.md":     false,
		"digest-only.md": false,
		"new.md":         false,
	}
	for _, e := range changes {
		if e.SkipUpload != want[e.File.Path] {
			t.Errorf("%s: SkipUpload=%v, want %v", e.File.Path, e.SkipUpload, want[e.File.Path])
		}
	}
	if changes[0].File.Path != "changed.md" {
		t.Errorf("expected sorted output, first=%q", changes[0].File.Path)
	}
	if changes.Uploads() != 3 {
		t.Errorf("Uploads() = %d, want 3", changes.Uploads())
	}
	for _, e := range changes {
		if e.File.Path == "new.md" && e.File.Name != "New" {
			t.Errorf("new entry should carry discovered name, got %q", e.File.Name)
		}
	}
}

func TestBuildFilterExcludes(t *testing.T) {
	m := manifest.New("pkg")
	files := []content.File{{Path: "a.md"}, {Path: "b.png"}}
	digests := map[string]string{"a.md": "x", "b.png": "y"}

	changes := Build(m, files, digests, Options{Filter: content.SkipImages(nil)})
	if len(changes) != 1 || changes[0].File.Path != "a.md" {
		t.Fatalf("unexpected changes: %+v", changes)
	}
}

func TestComputeReportsUnreadableFiles(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good.md")
	if err := os.WriteFile(good, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	files := []content.File{
		{Path: "good.md", FullPath: good},
		{Path: "gone.md", FullPath: filepath.Join(root, "gone.md")},
		{Path: "cover.png", FullPath: filepath.Join(root, "cover.png")},
	}

	res := Compute(context.Background(), manifest.New("pkg"), files, Options{Filter: content.SkipImages(nil)})
	if len(res.Changes) != 1 || res.Changes[0].File.Path != "good.md" {
		t.Fatalf("unexpected changes: %+v", res.Changes)
	}
	if res.Changes[0].CurrentDigest != digest.Bytes([]byte("hello")) {
		t.Fatalf("wrong digest %q", res.Changes[0].CurrentDigest)
	}
	if len(res.Failures) != 1 || res.Failures[0].Path != "gone.md" {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
	if !errors.Is(res.Failures[0].Err, services.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", res.Failures[0].Err)
	}
	if len(res.Excluded) != 1 || res.Excluded[0] != "cover.png" {
		t.Fatalf("unexpected excluded: %v", res.Excluded)
	}
}
