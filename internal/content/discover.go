package content

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"tutorialpub/internal/manifest"
	"tutorialpub/internal/services"
)

// File is one publishable file found under a package root.
type File struct {
	// Path is the package-relative manifest key.
	Path string
	// FullPath is the on-disk location.
	FullPath string
	// Name is the human-readable display name.
	Name string
}

// Options tunes discovery.
type Options struct {
	// ManifestName is excluded along with its lock and temp files.
	ManifestName string
}

// Discover walks root and returns every regular, non-hidden file sorted by
// path. Markdown files get a display name from their front matter title or
// first heading; everything else is named after its base name.
func Discover(root string, opts Options) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "content", "stat root", root, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrIO, "content", "stat root", root+" is not a directory", nil)
	}

	var files []File
	walkErr := filepath.WalkDir(root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if full == root {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, full)
		if err != nil {
			return err
		}
		key := manifest.CleanPath(filepath.ToSlash(rel))
		if isManifestArtifact(key, opts.ManifestName) {
			return nil
		}
		files = append(files, File{
			Path:     key,
			FullPath: full,
			Name:     nameFor(full, key),
		})
		return nil
	})
	if walkErr != nil {
		return nil, services.Wrap(services.ErrIO, "content", "walk", root, walkErr)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func isManifestArtifact(key, manifestName string) bool {
	if manifestName == "" {
		return false
	}
	switch {
	case key == manifestName:
		return true
	case key == manifestName+".lock":
		return true
	case strings.HasPrefix(key, manifestName+".") && strings.HasSuffix(key, ".tmp"):
		return true
	}
	return false
}

func nameFor(full, key string) string {
	base := path.Base(key)
	if !IsMarkdown(key) {
		return base
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return base
	}
	return DisplayName(key, data)
}
