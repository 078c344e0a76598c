package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSafeWriteFileReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out.md")
	if err := SafeWriteFile(p, []byte("one")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := SafeWriteFile(p, []byte("two")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "two" {
		t.Fatalf("unexpected content %q (%v)", b, err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestSafeWriteFileCreatesParents(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a", "b", "chart.png")
	if err := SafeWriteFile(p, []byte("png")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if b, err := os.ReadFile(p); err != nil || string(b) != "png" {
		t.Fatalf("unexpected content %q (%v)", b, err)
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"rows": 3})
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	if !strings.Contains(string(b), "\n  \"rows\": 3") {
		t.Fatalf("expected indented json, got %s", b)
	}
}

func TestSummaryPath(t *testing.T) {
	if got := SummaryPath("/data/sales.q1.xlsx", "/out", "summary.md"); got != filepath.Join("/out", "sales.q1.summary.md") {
		t.Fatalf("got %s", got)
	}
	if got := SummaryPath("/data/a.csv", "", "summary.md"); got != filepath.Join("/data", "a.summary.md") {
		t.Fatalf("got %s", got)
	}
}
