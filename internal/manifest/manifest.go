package manifest

import (
	"path"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TrackedFile is the per-file publish state recorded in the manifest.
//
// StorageRef is only meaningful for the recorded Digest: it names the upload
// of exactly those bytes. Use WithDigest and WithUpload rather than assigning
// fields directly so a digest change always invalidates the reference.
type TrackedFile struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	Digest     string `json:"digest,omitempty"`
	StorageRef string `json:"storageRef,omitempty"`
}

// Uploaded reports whether the recorded digest has a successful upload.
func (f TrackedFile) Uploaded() bool {
	return f.StorageRef != ""
}

// WithDigest records a digest computed without uploading. A changed digest
// clears the stale storage reference.
func (f TrackedFile) WithDigest(digest string) TrackedFile {
	if digest != f.Digest {
		f.StorageRef = ""
	}
	f.Digest = digest
	return f
}

// WithUpload records a successful upload of the bytes with the given digest.
func (f TrackedFile) WithUpload(digest, ref string) TrackedFile {
	f.Digest = digest
	f.StorageRef = ref
	return f
}

// Equal compares records field by field.
func (f TrackedFile) Equal(other TrackedFile) bool {
	return f == other
}

// Reviewer identifies a reviewer assigned to the package's proposal.
type Reviewer struct {
	PDA        string `json:"pda,omitempty"`
	Pubkey     string `json:"pubkey"`
	GithubName string `json:"githubName,omitempty"`
}

// Reviewers holds the two reviewer slots of a proposal.
type Reviewers struct {
	Reviewer1 *Reviewer `json:"reviewer1,omitempty"`
	Reviewer2 *Reviewer `json:"reviewer2,omitempty"`
}

// Manifest is the durable local record of a package's publish state. It is
// authoritative for what has been uploaded.
type Manifest struct {
	Slug       string                 `json:"slug"`
	ProposalID int64                  `json:"proposalId"`
	Creator    string                 `json:"creator,omitempty"`
	Reviewers  Reviewers              `json:"reviewers"`
	Content    map[string]TrackedFile `json:"content"`
}

// New returns an empty manifest for slug.
func New(slug string) Manifest {
	return Manifest{Slug: slug, Content: make(map[string]TrackedFile)}
}

// Clone returns a deep copy of m.
func (m Manifest) Clone() Manifest {
	out := m
	out.Content = make(map[string]TrackedFile, len(m.Content))
	for key, file := range m.Content {
		out.Content[key] = file
	}
	if m.Reviewers.Reviewer1 != nil {
		r := *m.Reviewers.Reviewer1
		out.Reviewers.Reviewer1 = &r
	}
	if m.Reviewers.Reviewer2 != nil {
		r := *m.Reviewers.Reviewer2
		out.Reviewers.Reviewer2 = &r
	}
	return out
}

// Get returns the record for path.
func (m Manifest) Get(p string) (TrackedFile, bool) {
	file, ok := m.Content[CleanPath(p)]
	return file, ok
}

// Paths returns the tracked paths in lexical order.
func (m Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Content))
	for key := range m.Content {
		paths = append(paths, key)
	}
	sort.Strings(paths)
	return paths
}

// CleanPath canonicalizes a package-relative path into a manifest key:
// forward slashes, no leading "./", NFC-normalized so the same file name
// typed on different systems maps to one key.
func CleanPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	return norm.NFC.String(p)
}
