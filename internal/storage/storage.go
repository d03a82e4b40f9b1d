// Package storage defines the immutable content store contract used by the
// publish pipeline. An upload is content-addressed from the caller's point of
// view: the returned reference names exactly the bytes that were sent.
package storage

import (
	"context"
	"mime"
	"path"
	"strings"
)

// Credentials carries the signing material an upload needs. Implementations
// that do not authenticate ignore it.
type Credentials struct {
	Wallet string
}

// Store uploads bytes and returns an opaque reference to them.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, creds Credentials) (string, error)
}

// ObjectKey builds the store key for a package file.
func ObjectKey(slug, relPath string) string {
	slug = strings.Trim(slug, "/")
	relPath = strings.TrimPrefix(relPath, "/")
	if slug == "" {
		return relPath
	}
	return slug + "/" + relPath
}

// ContentType guesses the MIME type from the key's extension.
func ContentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	switch ext {
	case ".md", ".markdown", ".mdx":
		return "text/markdown; charset=utf-8"
	case ".json":
		return "application/json"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// IsText reports whether a content type is text-like.
func IsText(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/") ||
		strings.HasPrefix(ct, "application/json") ||
		strings.HasPrefix(ct, "application/javascript") ||
		strings.HasPrefix(ct, "image/svg")
}
