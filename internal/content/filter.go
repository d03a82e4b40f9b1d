package content

import (
	"path"
	"strings"
)

// DefaultImageExtensions are the formats --skip-images excludes.
var DefaultImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

var markdownExtensions = map[string]struct{}{
	".md":       {},
	".mdx":      {},
	".markdown": {},
}

// IsMarkdown reports whether p names a markdown document.
func IsMarkdown(p string) bool {
	_, ok := markdownExtensions[strings.ToLower(path.Ext(p))]
	return ok
}

// IsImage reports whether p has one of the given extensions, compared
// case-insensitively. A nil list means DefaultImageExtensions.
func IsImage(p string, extensions []string) bool {
	if extensions == nil {
		extensions = DefaultImageExtensions
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	for _, candidate := range extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// SkipImages returns a filter that keeps everything except images.
func SkipImages(extensions []string) func(File) bool {
	return func(f File) bool {
		return !IsImage(f.Path, extensions)
	}
}
