// Package paths centralizes the on-disk layout of the application base
// directory (settings, logs, run history, build-log archives) and the
// default project cache locations.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// DirName is the default application base directory, relative to the
// working directory.
const DirName = ".javaseeker"

// ResolveBase returns the absolute application base directory. An empty base
// selects <cwd>/.javaseeker.
func ResolveBase(base string) (string, error) {
	if base == "" {
		base = DirName
	}
	return Absolute(base, "")
}

// Absolute resolves p against relativeTo (or the working directory when
// relativeTo is empty) and cleans the result.
func Absolute(p string, relativeTo string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	if relativeTo == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		relativeTo = wd
	}
	return filepath.Clean(filepath.Join(relativeTo, p)), nil
}

// DefaultCacheRoot is <cwd>/.cache.
func DefaultCacheRoot() (string, error) {
	return Absolute(".cache", "")
}

// DefaultCachePath returns <cacheRoot>/<name>.
func DefaultCachePath(cacheRoot, name string) string {
	return filepath.Join(cacheRoot, name)
}

// ConfigPath returns <base>/config.json
func ConfigPath(base string) string {
	return filepath.Join(base, "config.json")
}

// LogsDir returns <base>/logs
func LogsDir(base string) string {
	return filepath.Join(base, "logs")
}

// LogPath returns the log file of a subsystem, <base>/logs/<subsystem>.log
func LogPath(base, subsystem string) string {
	return filepath.Join(LogsDir(base), subsystem+".log")
}

// HistoryDBPath returns <base>/history.db
func HistoryDBPath(base string) string {
	return filepath.Join(base, "history.db")
}

// BuildLogsDir returns <base>/build-logs/<project>
func BuildLogsDir(base, project string) string {
	return filepath.Join(base, "build-logs", project)
}

// EnsureDir creates dir (and parents) when missing and returns it.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// IsDir reports whether p exists and is a directory.
func IsDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// IsWithin checks if path is inside root once both are resolved.
func IsWithin(path string, root string) bool {
	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		rootResolved = root
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}

// NormalizePath converts backslashes to forward slashes
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}
