package source

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"javaseeker/internal/projects"
)

func requireGit(t *testing.T) *Git {
	t.Helper()
	g := NewGit("")
	if !g.Available() {
		t.Skip("git not installed")
	}
	return g
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	full := append([]string{"-c", "user.name=test", "-c", "user.email=test@example.com", "-c", "commit.gpgsign=false"}, args...)
	cmd := exec.Command("git", full...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func commitFile(t *testing.T, dir, name, content, msg string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	gitCmd(t, dir, "add", name)
	gitCmd(t, dir, "commit", "-m", msg)
}

// newOrigin creates a repository whose default branch is main.
func newOrigin(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "origin")
	require.NoError(t, os.MkdirAll(dir, 0755))
	gitCmd(t, dir, "init")
	gitCmd(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")
	commitFile(t, dir, "README.md", "hello\n", "initial")
	return dir
}

func gitDescriptor(t *testing.T, origin string) projects.Descriptor {
	t.Helper()
	cache := filepath.Join(t.TempDir(), "cache", "app")
	require.NoError(t, os.MkdirAll(cache, 0755))
	return projects.Descriptor{
		Name:       "app",
		SourceKind: projects.SourceGit,
		Location:   origin,
		CachePath:  cache,
		Status:     projects.StatusNotSynced,
	}
}

func TestGitSourceClone(t *testing.T) {
	g := requireGit(t)
	ctx := context.Background()
	origin := newOrigin(t)
	d := gitDescriptor(t, origin)
	src := &GitSource{Git: g}

	var progress []projects.Status
	status, err := src.Acquire(ctx, d, func(s projects.Status) { progress = append(progress, s) })
	require.NoError(t, err)
	assert.Equal(t, projects.StatusCompiling, status)
	assert.Equal(t, []projects.Status{projects.StatusSyncing}, progress)

	assert.FileExists(t, filepath.Join(d.CachePath, "README.md"))
	assert.True(t, g.IsRepo(ctx, d.CachePath))
	branch, err := g.CurrentBranch(ctx, d.CachePath)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestGitSourceWipesInvalidRepository(t *testing.T) {
	g := requireGit(t)
	ctx := context.Background()
	origin := newOrigin(t)
	d := gitDescriptor(t, origin)

	require.NoError(t, os.WriteFile(filepath.Join(d.CachePath, "stale.txt"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(d.CachePath, ".git"), 0755))
	require.False(t, g.IsRepo(ctx, d.CachePath))

	status, err := (&GitSource{Git: g}).Sync(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, projects.StatusCompiling, status)

	assert.NoFileExists(t, filepath.Join(d.CachePath, "stale.txt"))
	assert.FileExists(t, filepath.Join(d.CachePath, "README.md"))
	assert.True(t, g.IsRepo(ctx, d.CachePath))
}

func TestGitSourcePull(t *testing.T) {
	g := requireGit(t)
	ctx := context.Background()
	origin := newOrigin(t)
	d := gitDescriptor(t, origin)
	src := &GitSource{Git: g}

	_, err := src.Sync(ctx, d)
	require.NoError(t, err)
	before, err := g.Head(ctx, d.CachePath)
	require.NoError(t, err)

	commitFile(t, origin, "NEWS.md", "news\n", "second")

	status, err := src.Sync(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, projects.StatusCompiling, status)
	assert.FileExists(t, filepath.Join(d.CachePath, "NEWS.md"))

	after, err := g.Head(ctx, d.CachePath)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestGitSourceSwitchesBranch(t *testing.T) {
	g := requireGit(t)
	ctx := context.Background()
	origin := newOrigin(t)
	d := gitDescriptor(t, origin)
	src := &GitSource{Git: g}

	_, err := src.Sync(ctx, d)
	require.NoError(t, err)

	gitCmd(t, origin, "checkout", "-b", "develop")
	commitFile(t, origin, "DEV.md", "dev\n", "develop work")
	gitCmd(t, origin, "checkout", "main")

	d.Branch = "develop"
	status, err := src.Sync(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, projects.StatusCompiling, status)

	branch, err := g.CurrentBranch(ctx, d.CachePath)
	require.NoError(t, err)
	assert.Equal(t, "develop", branch)
	assert.FileExists(t, filepath.Join(d.CachePath, "DEV.md"))
}

func TestGitSourceMergeConflict(t *testing.T) {
	g := requireGit(t)
	ctx := context.Background()
	origin := newOrigin(t)
	d := gitDescriptor(t, origin)
	src := &GitSource{Git: g}

	_, err := src.Sync(ctx, d)
	require.NoError(t, err)

	commitFile(t, origin, "README.md", "upstream change\n", "upstream")
	commitFile(t, d.CachePath, "README.md", "local change\n", "local")

	status, err := src.Sync(ctx, d)
	assert.Error(t, err)
	assert.Equal(t, projects.StatusFailedMergeConflict, status)

	conflicts, err := g.UnmergedPaths(ctx, d.CachePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md"}, conflicts)

	// never auto-resolved: the next attempt reports the same conflict
	d.Status = projects.StatusFailedMergeConflict
	status, _ = src.Acquire(ctx, d, nil)
	assert.Equal(t, projects.StatusFailedMergeConflict, status)
}

func TestGitSourceFailure(t *testing.T) {
	g := requireGit(t)
	d := gitDescriptor(t, filepath.Join(t.TempDir(), "does-not-exist"))

	status, err := (&GitSource{Git: g}).Sync(context.Background(), d)
	assert.Error(t, err)
	assert.Equal(t, projects.StatusFailedSync, status)

	var gerr *GitError
	assert.ErrorAs(t, err, &gerr)
}

func TestGitSourceSkipsSettledProjects(t *testing.T) {
	src := &GitSource{Git: NewGit("git-binary-that-does-not-exist")}
	for _, st := range []projects.Status{projects.StatusReady, projects.StatusFailedBuild, projects.StatusCompiling} {
		d := projects.Descriptor{Name: "app", SourceKind: projects.SourceGit, Status: st}
		called := false
		status, err := src.Acquire(context.Background(), d, func(projects.Status) { called = true })
		require.NoError(t, err)
		assert.Equal(t, st, status)
		assert.False(t, called)
	}
}

func TestGitSourceDue(t *testing.T) {
	src := &GitSource{}
	due := map[projects.Status]bool{
		projects.StatusNotSynced:             true,
		projects.StatusFailedSync:            true,
		projects.StatusFailedMergeConflict:   true,
		projects.StatusCompiling:             true,
		projects.StatusReady:                 false,
		projects.StatusFailedBuild:           false,
		projects.StatusFailedUnexpectedError: false,
	}
	for st, want := range due {
		assert.Equal(t, want, src.Due(projects.Descriptor{Status: st}), st)
	}
}

func TestLocalSource(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		location string
		status   projects.Status
		want     projects.Status
	}{
		{"missing path", filepath.Join(dir, "gone"), projects.StatusReady, projects.StatusFailedInvalidPath},
		{"new project", dir, projects.StatusNotSynced, projects.StatusCompiling},
		{"path came back", dir, projects.StatusFailedInvalidPath, projects.StatusCompiling},
		{"already ready", dir, projects.StatusReady, projects.StatusReady},
		{"no build file", dir, projects.StatusReadyNoBuildFile, projects.StatusReadyNoBuildFile},
		{"failed build retried", dir, projects.StatusFailedBuild, projects.StatusCompiling},
		{"timed out build retried", dir, projects.StatusFailedBuildTimeout, projects.StatusCompiling},
		{"build exception retried", dir, projects.StatusFailedBuildException, projects.StatusCompiling},
		{"compiling", dir, projects.StatusCompiling, projects.StatusCompiling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := projects.Descriptor{Name: "local", SourceKind: projects.SourceLocal, Location: tt.location, Status: tt.status}
			got, _ := LocalSource{}.Acquire(context.Background(), d, nil)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want != tt.status || tt.status == projects.StatusCompiling, LocalSource{}.Due(d))
		})
	}
}

func TestSourcesFor(t *testing.T) {
	s := NewSources(NewGit(""), nil)

	src, err := s.For(projects.SourceGit)
	require.NoError(t, err)
	assert.IsType(t, &GitSource{}, src)

	src, err = s.For(projects.SourceLocal)
	require.NoError(t, err)
	assert.IsType(t, &LocalSource{}, src)

	_, err = s.For("svn")
	assert.Error(t, err)
}
