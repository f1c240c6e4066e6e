package javamodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// ErrParserUnavailable is returned by Build in binaries compiled without cgo.
var ErrParserUnavailable = errors.New("java parser unavailable: built without cgo")

// DefaultPlatformPrefixes are the JDK namespaces.
var DefaultPlatformPrefixes = []string{"java.", "javax."}

// Builder constructs models. The zero value works: conventional classpath,
// no jar cache, one parse worker per CPU.
type Builder struct {
	Classpath        ClasspathStrategy
	Archives         *ArchiveIndex
	PlatformPrefixes []string
	Workers          int
	RespectGitignore bool
	Logger           *slog.Logger
}

// Build parses every Java source under root. When the classpath strategy
// finds nothing the model is built in no-classpath mode; references that
// cannot be bound keep their written names either way.
func (b *Builder) Build(ctx context.Context, root string) (*Model, error) {
	started := time.Now()
	logger := b.logger().With("root", root)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("model root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("model root %s is not a directory", root)
	}

	strategy := b.Classpath
	if strategy == nil {
		strategy = ConventionalClasspath{}
	}
	cp, err := strategy.Classpath(root)
	if err != nil {
		logger.Warn("Classpath inference incomplete", "error", err)
	}

	m := &Model{
		Root:        root,
		Classpath:   cp,
		NoClasspath: len(cp) == 0,
		byName:      make(map[string]*Type),
	}
	if m.NoClasspath {
		logger.Info("No classpath entries found, building without classpath")
		m.Classes = newClassIndex()
	} else {
		m.Classes = indexClasspath(cp, b.Archives, func(entry string, err error) {
			logger.Warn("Skipping classpath entry", "entry", entry, "error", err)
		})
	}

	files, err := collectSources(ctx, root, b.RespectGitignore)
	if err != nil {
		return nil, fmt.Errorf("collect sources: %w", err)
	}

	if err := b.parse(ctx, m, files); err != nil {
		return nil, err
	}

	logger.Info("Model built",
		"files", len(m.Files),
		"types", len(m.Types),
		"refs", len(m.Refs),
		"classpathEntries", len(cp),
		"classes", m.Classes.Len(),
		"duration", time.Since(started).Round(time.Millisecond),
	)
	return m, nil
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

func (b *Builder) workers() int {
	if b.Workers > 0 {
		return b.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (b *Builder) prefixes() []string {
	if len(b.PlatformPrefixes) == 0 {
		return DefaultPlatformPrefixes
	}
	return b.PlatformPrefixes
}

func (b *Builder) isPlatform(name string) bool {
	for _, p := range b.prefixes() {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// register adds a declared type and its nested types to the lookup table.
// The first declaration of a name wins.
func (m *Model) register(t *Type) {
	m.Types = append(m.Types, t)
	if _, dup := m.byName[t.Qualified]; !dup {
		m.byName[t.Qualified] = t
	}
	for _, n := range t.Nested {
		m.register(n)
	}
}
