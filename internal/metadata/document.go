// Package metadata models the mutable per-package metadata document and the
// store contract used to read and replace it.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"tutorialpub/internal/manifest"
)

const contentField = "content"

// Store reads and replaces whole metadata documents by stream id.
type Store interface {
	GetDocument(ctx context.Context, streamID string) (*Document, error)
	SetDocument(ctx context.Context, streamID string, doc *Document) error
}

// Document is a remote metadata document. Content is owned by the publish
// pipeline; every other top-level field is kept verbatim so a whole-document
// write never drops fields written by other tools. Content entries keep the
// fields this package does not model (for example "arweaveHash") as well.
type Document struct {
	Content map[string]manifest.TrackedFile
	Extra   map[string]json.RawMessage

	// raw holds each content entry as it was read, keyed by clean path.
	raw map[string]json.RawMessage
}

// entryFields are the JSON keys of manifest.TrackedFile.
var entryFields = []string{"path", "name", "digest", "storageRef"}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Content: make(map[string]manifest.TrackedFile),
		Extra:   make(map[string]json.RawMessage),
		raw:     make(map[string]json.RawMessage),
	}
}

// Entry returns the content entry for path.
func (d *Document) Entry(path string) (manifest.TrackedFile, bool) {
	if d == nil {
		return manifest.TrackedFile{}, false
	}
	file, ok := d.Content[manifest.CleanPath(path)]
	return file, ok
}

// Clone returns a deep copy of d. A nil document clones to an empty one.
func (d *Document) Clone() *Document {
	out := NewDocument()
	if d == nil {
		return out
	}
	for key, file := range d.Content {
		out.Content[key] = file
	}
	for key, raw := range d.Extra {
		out.Extra[key] = append(json.RawMessage(nil), raw...)
	}
	for key, raw := range d.raw {
		out.raw[key] = append(json.RawMessage(nil), raw...)
	}
	return out
}

// StringField decodes a top-level string field such as "title".
func (d *Document) StringField(name string) string {
	if d == nil {
		return ""
	}
	raw, ok := d.Extra[name]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}

// MarshalJSON writes Extra fields alongside content. Entries that still
// match what was read are written back byte for byte; changed entries are
// re-encoded on top of their unknown fields.
func (d Document) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(d.Extra)+1)
	for key, raw := range d.Extra {
		if key == contentField {
			continue
		}
		fields[key] = raw
	}
	content := make(map[string]json.RawMessage, len(d.Content))
	for key, file := range d.Content {
		encoded, err := encodeEntry(key, file, d.raw[key])
		if err != nil {
			return nil, fmt.Errorf("encode content %s: %w", key, err)
		}
		content[key] = encoded
	}
	encoded, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	fields[contentField] = encoded
	return json.Marshal(fields)
}

func encodeEntry(key string, file manifest.TrackedFile, raw json.RawMessage) (json.RawMessage, error) {
	typed, err := json.Marshal(file)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return typed, nil
	}
	if previous, err := decodeEntry(key, raw); err == nil && previous.Equal(file) {
		return raw, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &merged); err != nil || merged == nil {
		return typed, nil
	}
	for _, name := range entryFields {
		delete(merged, name)
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(typed, &known); err != nil {
		return nil, err
	}
	for name, value := range known {
		merged[name] = value
	}
	return json.Marshal(merged)
}

func decodeEntry(key string, raw json.RawMessage) (manifest.TrackedFile, error) {
	var file manifest.TrackedFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return file, err
	}
	if file.Path == "" {
		file.Path = key
	}
	return file, nil
}

// UnmarshalJSON splits content from the preserved fields.
func (d *Document) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	doc := NewDocument()
	for key, raw := range fields {
		if key == contentField {
			continue
		}
		doc.Extra[key] = raw
	}
	if raw, ok := fields[contentField]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		var content map[string]json.RawMessage
		if err := json.Unmarshal(raw, &content); err != nil {
			return fmt.Errorf("decode content: %w", err)
		}
		for key, entry := range content {
			clean := manifest.CleanPath(key)
			file, err := decodeEntry(clean, entry)
			if err != nil {
				return fmt.Errorf("decode content %s: %w", key, err)
			}
			doc.Content[clean] = file
			if !bytes.Equal(bytes.TrimSpace(entry), []byte("null")) {
				doc.raw[clean] = append(json.RawMessage(nil), entry...)
			}
		}
	}
	*d = *doc
	return nil
}
