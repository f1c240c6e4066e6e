package javamodel

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ClasspathStrategy infers the classpath for a project directory. An empty
// result makes the builder fall back to no-classpath mode.
type ClasspathStrategy interface {
	Classpath(root string) ([]string, error)
}

// ClasspathFunc adapts a function to ClasspathStrategy.
type ClasspathFunc func(root string) ([]string, error)

func (f ClasspathFunc) Classpath(root string) ([]string, error) { return f(root) }

// Conventional output directories, Maven and Gradle, main before test.
var conventionalClassDirs = []string{
	"target/classes",
	"build/classes/java/main",
	"target/test-classes",
	"build/classes/java/test",
}

// ConventionalClasspath probes the compiled-output directories Maven and
// Gradle write by default, plus the jars copied into target/dependency by
// mvn dependency:copy-dependencies. It never reads build manifests.
type ConventionalClasspath struct {
	// DependencyDirs are scanned for *.jar; defaults to target/dependency.
	DependencyDirs []string
}

// Classpath returns the existing entries in probe order.
func (c ConventionalClasspath) Classpath(root string) ([]string, error) {
	var entries []string
	for _, rel := range conventionalClassDirs {
		dir := filepath.Join(root, filepath.FromSlash(rel))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			entries = append(entries, dir)
		}
	}

	depDirs := c.DependencyDirs
	if len(depDirs) == 0 {
		depDirs = []string{"target/dependency"}
	}
	for _, rel := range depDirs {
		dir := filepath.Join(root, filepath.FromSlash(rel))
		items, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return entries, err
		}
		var jars []string
		for _, item := range items {
			if !item.IsDir() && strings.HasSuffix(strings.ToLower(item.Name()), ".jar") {
				jars = append(jars, filepath.Join(dir, item.Name()))
			}
		}
		sort.Strings(jars)
		entries = append(entries, jars...)
	}
	return entries, nil
}
