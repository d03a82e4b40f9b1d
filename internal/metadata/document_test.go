package metadata

import (
	"encoding/json"
	"strings"
	"testing"

	"tutorialpub/internal/manifest"
)

func TestDocumentPreservesUnknownFields(t *testing.T) {
	raw := `{"title":"Solana 101","tags":["rust"],"content":{"index.md":{"path":"index.md","name":"Intro","digest":"d1","storageRef":"tx-1"}}}`

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.StringField("title") != "Solana 101" {
		t.Fatalf("title lost: %v", doc.Extra)
	}
	entry, ok := doc.Entry("index.md")
	if !ok || entry.StorageRef != "tx-1" {
		t.Fatalf("unexpected entry %+v", entry)
	}

	doc.Content["b.md"] = manifest.TrackedFile{Path: "b.md", Name: "B"}
	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"title":"Solana 101"`, `"tags":["rust"]`, `"b.md"`, `"index.md"`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("marshaled document missing %s: %s", want, out)
		}
	}
}

func TestDocumentNullContent(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(`{"content":null}`), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Content == nil || len(doc.Content) != 0 {
		t.Fatalf("expected empty content, got %v", doc.Content)
	}
}

func TestCloneIsDeep(t *testing.T) {
	doc := NewDocument()
	doc.Content["a.md"] = manifest.TrackedFile{Path: "a.md", Name: "A"}
	doc.Extra["title"] = json.RawMessage(`"T"`)

	clone := doc.Clone()
	clone.Content["a.md"] = manifest.TrackedFile{Path: "a.md", Name: "changed"}
	clone.Extra["title"][1] = 'X'

	if doc.Content["a.md"].Name != "A" {
		t.Fatal("content shared between clone and original")
	}
	if string(doc.Extra["title"]) != `"T"` {
		t.Fatal("extra shared between clone and original")
	}

	var nilDoc *Document
	if c := nilDoc.Clone(); c == nil || c.Content == nil {
		t.Fatal("nil clone should be empty document")
	}
}

func TestDocumentKeepsUnknownEntryFields(t *testing.T) {
	raw := `{"content":{` +
		`"other.md":{"path":"other.md","name":"Other","digest":"d0","storageRef":"tx-0","arweaveHash":"AR-1"},` +
		`"index.md":{"path":"index.md","name":"Intro","digest":"d1","storageRef":"tx-1","arweaveHash":"AR-2"}}}`

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	doc.Content["index.md"] = manifest.TrackedFile{Path: "index.md", Name: "Intro", Digest: "d2", StorageRef: "tx-2"}

	out, err := json.Marshal(doc.Clone())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Content map[string]map[string]string `json:"content"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	other := decoded.Content["other.md"]
	if other["arweaveHash"] != "AR-1" || other["storageRef"] != "tx-0" {
		t.Fatalf("untouched entry changed: %v", other)
	}
	index := decoded.Content["index.md"]
	if index["arweaveHash"] != "AR-2" || index["storageRef"] != "tx-2" || index["digest"] != "d2" {
		t.Fatalf("replaced entry should carry new fields and keep unknown ones: %v", index)
	}
}

func TestDocumentClearedFieldIsNotRestored(t *testing.T) {
	raw := `{"content":{"a.md":{"path":"a.md","name":"A","digest":"d1","storageRef":"tx-1","extra":true}}}`

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	doc.Content["a.md"] = doc.Content["a.md"].WithDigest("d2")

	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "tx-1") {
		t.Fatalf("stale storage ref written back: %s", out)
	}
	if !strings.Contains(string(out), `"extra":true`) {
		t.Fatalf("unknown entry field lost: %s", out)
	}
}
