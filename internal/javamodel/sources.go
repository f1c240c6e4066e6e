package javamodel

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/denormal/go-gitignore"
)

// build files whose sibling output directories are never scanned
var buildMarkers = []string{"pom.xml", "build.gradle", "build.gradle.kts"}

var outputDirs = map[string]bool{"target": true, "build": true, "out": true}

// collectSources lists .java files under root, sorted. Hidden directories
// and build output next to a build file are skipped, as are .gitignore
// matches when respectGitignore is set.
func collectSources(ctx context.Context, root string, respectGitignore bool) ([]string, error) {
	var ignore gitignore.GitIgnore
	if respectGitignore {
		if repo, err := gitignore.NewRepository(root); err == nil {
			ignore = repo
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}
		name := d.Name()

		if d.IsDir() {
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if outputDirs[name] && hasBuildMarker(filepath.Dir(path)) {
				return filepath.SkipDir
			}
			if ignore != nil {
				if m := ignore.Relative(rel, true); m != nil && m.Ignore() {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(name, ".java") || name == "module-info.java" {
			return nil
		}
		if ignore != nil {
			if m := ignore.Relative(rel, false); m != nil && m.Ignore() {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func hasBuildMarker(dir string) bool {
	for _, m := range buildMarkers {
		if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
			return true
		}
	}
	return false
}
