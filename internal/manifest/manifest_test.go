package manifest

import "testing"

func TestWithDigestClearsStaleRef(t *testing.T) {
	file := TrackedFile{Path: "a.md"}.WithUpload(sampleDigest, "tx-1")

	same := file.WithDigest(sampleDigest)
	if same.StorageRef != "tx-1" {
		t.Fatalf("unchanged digest should keep ref, got %+v", same)
	}

	changed := file.WithDigest("0000000000000000000000000000000000000000000000000000000000000000")
	if changed.StorageRef != "" {
		t.Fatalf("changed digest should clear ref, got %+v", changed)
	}
	if changed.Uploaded() {
		t.Fatal("changed file should not report uploaded")
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"index.md", "index.md"},
		{"./index.md", "index.md"},
		{`images\cover.png`, "images/cover.png"},
		{"a//b/../c.md", "a/c.md"},
		{"cafe\u0301.md", "caf\u00e9.md"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := CleanPath(tt.in); got != tt.want {
			t.Errorf("CleanPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCloneDeepCopiesReviewers(t *testing.T) {
	m := New("x")
	m.Reviewers.Reviewer1 = &Reviewer{Pubkey: "pk1"}
	clone := m.Clone()
	clone.Reviewers.Reviewer1.Pubkey = "other"
	if m.Reviewers.Reviewer1.Pubkey != "pk1" {
		t.Fatal("clone shares reviewer pointer")
	}
}
