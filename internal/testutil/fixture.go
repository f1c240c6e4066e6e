// Package testutil builds throwaway Java project trees for tests.
package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

// WriteTree writes files, keyed by slash-separated relative path, under
// root and returns root.
func WriteTree(t *testing.T, root string, files map[string]string) string {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

// JavaProject writes files into a fresh temporary directory.
func JavaProject(t *testing.T, files map[string]string) string {
	t.Helper()
	return WriteTree(t, t.TempDir(), files)
}

// WriteJar creates a jar at path holding empty entries with the given
// names, e.g. "com/acme/Widget.class".
func WriteJar(t *testing.T, path string, entries ...string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for jar: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create jar: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, name := range entries {
		if _, err := zw.Create(name); err != nil {
			t.Fatalf("jar entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close jar writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close jar: %v", err)
	}
}
