package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestListCommandKeysPackagesBySlug(t *testing.T) {
	env := setupCLITestEnv(t)
	other := filepath.Join(env.cfg.Paths.TutorialsDir, "anchor-201")
	writeFile(t, filepath.Join(other, "index.md"), "# Anchor\n")
	writeFile(t, filepath.Join(other, "tutorial.lock.json"), `{"slug": "anchor", "proposalId": 7, "content": {}}`)

	if _, _, err := env.run(t, "publish", "solana-101"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	out, _, err := env.run(t, "list", "--json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var packages map[string]packageSummaryView
	if err := json.Unmarshal([]byte(out), &packages); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	solana, ok := packages["solana-101"]
	if !ok || solana.Files != 3 || solana.Tracked != 3 || solana.Uploaded != 3 {
		t.Fatalf("unexpected solana-101 summary: %+v", packages)
	}
	anchor, ok := packages["anchor"]
	if !ok || anchor.ProposalID != 7 || anchor.Files != 1 || anchor.Uploaded != 0 {
		t.Fatalf("expected anchor keyed by manifest slug: %+v", packages)
	}

	out, _, err = env.run(t, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	requireContains(t, out, "solana-101")
	requireContains(t, out, "anchor")
}

func TestListCommandReportsUnreadableManifest(t *testing.T) {
	env := setupCLITestEnv(t)
	writeFile(t, filepath.Join(env.root, "tutorial.lock.json"), "{not json")

	out, _, err := env.run(t, "list", "--json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var packages map[string]packageSummaryView
	if err := json.Unmarshal([]byte(out), &packages); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if packages["solana-101"].Error == "" {
		t.Fatalf("expected manifest error in summary: %+v", packages)
	}
}

func TestGetCommandJoinsManifestAndDisk(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "publish", "solana-101"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	writeFile(t, filepath.Join(env.root, "extra.md"), "# Extra\n")
	if err := os.Remove(filepath.Join(env.root, "lessons", "intro.md")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	out, _, err := env.run(t, "get", "solana-101", "--json")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	var view packageView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	states := map[string]string{}
	for _, f := range view.Files {
		states[f.Path] = f.State
	}
	want := map[string]string{
		"index.md":         "uploaded",
		"img/diagram.png":  "uploaded",
		"lessons/intro.md": "missing",
		"extra.md":         "untracked",
	}
	for path, state := range want {
		if states[path] != state {
			t.Fatalf("%s: expected %s, got %q (all: %v)", path, state, states[path], states)
		}
	}
	if view.Slug != "solana-101" {
		t.Fatalf("unexpected slug %q", view.Slug)
	}
}

func TestGetCommandVerifiesLocalRefs(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "publish", "solana-101"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	out, _, err := env.run(t, "get", "solana-101", "--verify", "--json")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	var view packageView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	for _, f := range view.Files {
		if f.Verified != "ok" {
			t.Fatalf("%s: expected verified ref, got %+v", f.Path, f)
		}
	}

	if err := os.RemoveAll(filepath.Join(env.cfg.Storage.LocalDir, "blobs")); err != nil {
		t.Fatalf("remove blobs: %v", err)
	}
	out, _, err = env.run(t, "get", "solana-101", "--verify")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	requireContains(t, out, "missing")
}

func TestGetCommandRequiresSlug(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "get"); err == nil {
		t.Fatal("expected error without a slug")
	}
}
