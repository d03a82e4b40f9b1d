package main

import (
	"strings"
	"testing"
)

func TestRenderTableTotalsCountColumns(t *testing.T) {
	out := renderTable(
		[]column{textCol("Package"), countCol("Files"), countCol("Uploaded")},
		[][]string{{"solana-101", "3", "2"}, {"anchor", "4", "1"}},
	)
	lines := strings.Split(out, "\n")
	var footer string
	for _, line := range lines {
		if strings.Contains(line, "Total") {
			footer = line
		}
	}
	if footer == "" || !strings.Contains(footer, "7") || !strings.Contains(footer, "3") {
		t.Fatalf("expected totals footer, got:\n%s", out)
	}
	if !strings.Contains(out, "Package") || strings.Contains(out, "PACKAGE") {
		t.Fatalf("headers should keep their case:\n%s", out)
	}
}

func TestRenderTableSingleRowHasNoFooter(t *testing.T) {
	out := renderTable([]column{textCol("Path"), countCol("Files")}, [][]string{{"a.md", "1"}})
	if strings.Contains(out, "Total") {
		t.Fatalf("single row should not be totaled:\n%s", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{textCol("Path"), textCol("Ref")}, [][]string{{"a.md"}})
	if !strings.Contains(out, "a.md") {
		t.Fatalf("missing row:\n%s", out)
	}
}
