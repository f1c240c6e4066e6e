package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveBase(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"default", "", filepath.Join(wd, DirName)},
		{"relative", "state", filepath.Join(wd, "state")},
		{"absolute", filepath.Join(wd, "x", "..", "abs"), filepath.Join(wd, "abs")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBase(tt.in)
			if err != nil {
				t.Fatalf("ResolveBase(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ResolveBase(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAbsoluteRelativeTo(t *testing.T) {
	got, err := Absolute("sub/dir", "/srv/app")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean("/srv/app/sub/dir") {
		t.Errorf("Absolute() = %q", got)
	}
}

func TestLayout(t *testing.T) {
	base := "/srv/app/.javaseeker"
	if got := LogPath(base, "lifecycle"); got != filepath.Join(base, "logs", "lifecycle.log") {
		t.Errorf("LogPath() = %q", got)
	}
	if got := HistoryDBPath(base); got != filepath.Join(base, "history.db") {
		t.Errorf("HistoryDBPath() = %q", got)
	}
	if got := BuildLogsDir(base, "demo"); got != filepath.Join(base, "build-logs", "demo") {
		t.Errorf("BuildLogsDir() = %q", got)
	}
	if got := DefaultCachePath("/srv/cache", "demo"); got != filepath.Join("/srv/cache", "demo") {
		t.Errorf("DefaultCachePath() = %q", got)
	}
}

func TestIsWithin(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(inside, 0755); err != nil {
		t.Fatal(err)
	}

	if !IsWithin(inside, root) {
		t.Error("expected nested path to be within root")
	}
	if IsWithin(filepath.Dir(root), root) {
		t.Error("expected parent to be outside root")
	}
	if !IsWithin(root, root) {
		t.Error("expected root to be within itself")
	}
}

func TestEnsureDirAndIsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "x", "y")
	if IsDir(dir) {
		t.Fatal("dir should not exist yet")
	}
	if _, err := EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	if !IsDir(dir) {
		t.Error("EnsureDir did not create the directory")
	}
}
