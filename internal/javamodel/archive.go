package javamodel

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ClassEntry is a compiled class found on the classpath.
type ClassEntry struct {
	Name     string // dotted, nested classes included: a.b.Outer.Inner
	Location string // jar file or class directory it came from
	Archive  bool
}

// ArchiveIndex lists the classes inside jar files. Listings are cached by
// path, size and modification time, so a rebuilt jar is read again.
type ArchiveIndex struct {
	cache *lru.Cache[string, []string]
}

// NewArchiveIndex creates an index keeping up to size jar listings.
func NewArchiveIndex(size int) (*ArchiveIndex, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	return &ArchiveIndex{cache: cache}, nil
}

// Classes returns the dotted class names inside a jar.
func (x *ArchiveIndex) Classes(jar string) ([]string, error) {
	info, err := os.Stat(jar)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s|%d|%d", jar, info.Size(), info.ModTime().UnixNano())
	if x != nil {
		if names, ok := x.cache.Get(key); ok {
			return names, nil
		}
	}

	r, err := zip.OpenReader(jar)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", jar, err)
	}
	defer func() { _ = r.Close() }()

	var names []string
	for _, f := range r.File {
		if name, ok := classNameFromPath(f.Name); ok {
			names = append(names, name)
		}
	}
	if x != nil {
		x.cache.Add(key, names)
	}
	return names, nil
}

// Len is the number of cached listings.
func (x *ArchiveIndex) Len() int {
	if x == nil {
		return 0
	}
	return x.cache.Len()
}

// classNameFromPath turns a/b/Outer$Inner.class into a.b.Outer.Inner.
// Anonymous and local classes, module-info and package-info are skipped.
func classNameFromPath(p string) (string, bool) {
	p = filepath.ToSlash(p)
	if !strings.HasSuffix(p, ".class") || strings.HasPrefix(p, "META-INF/") {
		return "", false
	}
	p = strings.TrimSuffix(p, ".class")
	base := p[strings.LastIndex(p, "/")+1:]
	if base == "module-info" || base == "package-info" {
		return "", false
	}
	for _, seg := range strings.Split(base, "$")[1:] {
		if seg == "" || (seg[0] >= '0' && seg[0] <= '9') {
			return "", false
		}
	}
	return strings.NewReplacer("/", ".", "$", ".").Replace(p), true
}

// ClassIndex maps class names to the classpath entry that provides them.
type ClassIndex struct {
	classes  map[string]ClassEntry
	packages map[string]bool
}

func newClassIndex() *ClassIndex {
	return &ClassIndex{classes: make(map[string]ClassEntry), packages: make(map[string]bool)}
}

// Lookup returns the entry for a dotted class name.
func (c *ClassIndex) Lookup(name string) (ClassEntry, bool) {
	if c == nil {
		return ClassEntry{}, false
	}
	e, ok := c.classes[name]
	return e, ok
}

// HasPackage reports whether any class lives directly in pkg.
func (c *ClassIndex) HasPackage(pkg string) bool {
	return c != nil && c.packages[pkg]
}

// Len is the number of indexed classes.
func (c *ClassIndex) Len() int {
	if c == nil {
		return 0
	}
	return len(c.classes)
}

func (c *ClassIndex) add(name, location string, archive bool) {
	if _, dup := c.classes[name]; dup {
		// first classpath entry wins, like the JVM
		return
	}
	c.classes[name] = ClassEntry{Name: name, Location: location, Archive: archive}
	if i := strings.LastIndex(name, "."); i > 0 {
		c.packages[name[:i]] = true
	}
}

// indexClasspath lists every class reachable from the classpath entries.
// Unreadable entries are reported through skip and left out.
func indexClasspath(entries []string, archives *ArchiveIndex, skip func(entry string, err error)) *ClassIndex {
	idx := newClassIndex()
	for _, entry := range entries {
		info, err := os.Stat(entry)
		if err != nil {
			skip(entry, err)
			continue
		}
		if !info.IsDir() {
			names, err := archives.Classes(entry)
			if err != nil {
				skip(entry, err)
				continue
			}
			for _, n := range names {
				idx.add(n, entry, true)
			}
			continue
		}
		err = filepath.WalkDir(entry, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			rel, rerr := filepath.Rel(entry, path)
			if rerr != nil {
				return nil
			}
			if n, ok := classNameFromPath(rel); ok {
				idx.add(n, entry, false)
			}
			return nil
		})
		if err != nil {
			skip(entry, err)
		}
	}
	return idx
}
