package build

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"javaseeker/internal/paths"
)

const archiveSuffix = ".log.zst"

// ErrNoArchive is returned when a project has no archived build output.
var ErrNoArchive = errors.New("no archived build log")

// LogArchive stores the full output of each build as a zstd stream under
// <base>/build-logs/<project>/ and keeps the newest Keep files.
type LogArchive struct {
	Base string
	Keep int
}

// NewLogArchive creates an archive rooted at the application base directory.
func NewLogArchive(base string, keep int) *LogArchive {
	return &LogArchive{Base: base, Keep: keep}
}

// ArchiveWriter compresses one build's output. Close flushes it and prunes
// older archives of the same project.
type ArchiveWriter struct {
	Path    string
	file    *os.File
	enc     *zstd.Encoder
	archive *LogArchive
	project string
}

// Create opens a new archive file for a build started at started.
func (a *LogArchive) Create(project string, started time.Time) (*ArchiveWriter, error) {
	dir, err := paths.EnsureDir(paths.BuildLogsDir(a.Base, project))
	if err != nil {
		return nil, fmt.Errorf("create build log dir: %w", err)
	}
	name := started.UTC().Format("20060102T150405.000000000Z") + archiveSuffix
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &ArchiveWriter{Path: path, file: f, enc: enc, archive: a, project: project}, nil
}

func (w *ArchiveWriter) Write(p []byte) (int, error) {
	return w.enc.Write(p)
}

// Close finishes the zstd frame and closes the file.
func (w *ArchiveWriter) Close() error {
	encErr := w.enc.Close()
	fileErr := w.file.Close()
	if err := errors.Join(encErr, fileErr); err != nil {
		return err
	}
	return w.archive.prune(w.project)
}

// List returns the archive files of a project, newest first.
func (a *LogArchive) List(project string) ([]string, error) {
	dir := paths.BuildLogsDir(a.Base, project)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), archiveSuffix) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	// names are UTC timestamps, so lexical order is chronological
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

// Latest returns the newest archive of a project.
func (a *LogArchive) Latest(project string) (string, error) {
	files, err := a.List(project)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w for project %s", ErrNoArchive, project)
	}
	return files[0], nil
}

// Open returns a reader of the decompressed archive at path.
func (a *LogArchive) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &archiveReader{dec: dec, file: f}, nil
}

type archiveReader struct {
	dec  *zstd.Decoder
	file *os.File
}

func (r *archiveReader) Read(p []byte) (int, error) {
	return r.dec.Read(p)
}

func (r *archiveReader) Close() error {
	r.dec.Close()
	return r.file.Close()
}

func (a *LogArchive) prune(project string) error {
	if a.Keep <= 0 {
		return nil
	}
	files, err := a.List(project)
	if err != nil {
		return err
	}
	for _, f := range files[min(len(files), a.Keep):] {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
