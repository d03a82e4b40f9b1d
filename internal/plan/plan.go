// Package plan decides, per file, whether the current bytes must be uploaded
// or whether the manifest already records an upload of exactly these bytes.
package plan

import (
	"context"
	"sort"

	"tutorialpub/internal/content"
	"tutorialpub/internal/digest"
	"tutorialpub/internal/manifest"
	"tutorialpub/internal/workerpool"
)

// Entry is the planned work for one file.
type Entry struct {
	// File is the manifest record as it stood when the plan was built.
	File manifest.TrackedFile
	// FullPath is where the bytes are read from.
	FullPath string
	// CurrentDigest is the digest of the bytes on disk at planning time.
	CurrentDigest string
	// SkipUpload is true when File already names an upload of CurrentDigest.
	SkipUpload bool
}

// ChangeSet lists the entries of a run sorted by path.
type ChangeSet []Entry

// Uploads counts the entries that need an upload.
func (c ChangeSet) Uploads() int {
	n := 0
	for _, e := range c {
		if !e.SkipUpload {
			n++
		}
	}
	return n
}

// Failure is a file whose digest could not be computed.
type Failure struct {
	Path     string
	FullPath string
	Err      error
}

// Options tunes planning.
type Options struct {
	// Filter keeps files it returns true for. Nil keeps everything.
	Filter func(content.File) bool
	// Workers bounds concurrent digesting. Non-positive uses the pool default.
	Workers int
}

// Result is a built ChangeSet plus the files that could not be planned.
type Result struct {
	Changes  ChangeSet
	Failures []Failure
	// Excluded lists paths dropped by the filter.
	Excluded []string
}

// Build applies the upload policy to files whose digests are known. Files
// missing from digests are left out; callers report them separately.
func Build(m manifest.Manifest, files []content.File, digests map[string]string, opts Options) ChangeSet {
	changes := make(ChangeSet, 0, len(files))
	for _, f := range files {
		if opts.Filter != nil && !opts.Filter(f) {
			continue
		}
		current, ok := digests[f.Path]
		if !ok {
			continue
		}
		record, tracked := m.Get(f.Path)
		if !tracked {
			record = manifest.TrackedFile{Path: f.Path, Name: f.Name}
		}
		changes = append(changes, Entry{
			File:          record,
			FullPath:      f.FullPath,
			CurrentDigest: current,
			SkipUpload:    tracked && record.Uploaded() && record.Digest == current,
		})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].File.Path < changes[j].File.Path })
	return changes
}

// Compute filters files, digests the survivors concurrently and builds the
// ChangeSet. A file that cannot be read is reported as a Failure rather than
// treated as unchanged.
func Compute(ctx context.Context, m manifest.Manifest, files []content.File, opts Options) Result {
	var res Result
	kept := make([]content.File, 0, len(files))
	for _, f := range files {
		if opts.Filter != nil && !opts.Filter(f) {
			res.Excluded = append(res.Excluded, f.Path)
			continue
		}
		kept = append(kept, f)
	}

	results := workerpool.Run(ctx, opts.Workers, kept, func(_ context.Context, f content.File) (string, error) {
		return digest.File(f.FullPath)
	})

	digests := make(map[string]string, len(kept))
	for i, r := range results {
		f := kept[i]
		if r.Err != nil {
			res.Failures = append(res.Failures, Failure{Path: f.Path, FullPath: f.FullPath, Err: r.Err})
			continue
		}
		digests[f.Path] = r.Value
	}

	res.Changes = Build(m, kept, digests, Options{})
	return res
}
