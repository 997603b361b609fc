// Package testutil provides shared helpers for building fixture content
// trees in tests.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WriteFile writes a file under root, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

// Doc renders a frontmatter document from metadata and body. A nil meta
// produces a body-only document.
func Doc(t *testing.T, meta map[string]any, body string) string {
	t.Helper()
	if meta == nil {
		return body
	}
	block, err := yaml.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal frontmatter: %v", err)
	}
	return "---\n" + string(block) + "---\n" + body
}
