package projects

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDescriptors writes content and pushes the mtime forward so a reload
// is detected even on filesystems with coarse timestamps.
func writeDescriptors(t *testing.T, path, content string, bump int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	mod := time.Now().Add(time.Duration(bump) * time.Second)
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func newTestStore(t *testing.T, name, content string) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if content != "" {
		writeDescriptors(t, path, content, 0)
	}
	return NewStore(path, filepath.Join(dir, ".cache"), nil), dir
}

func TestLoadCreatesMissingFile(t *testing.T) {
	store, _ := newTestStore(t, "projects.yml", "")

	require.NoError(t, store.Load())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "projects: []\n", string(data))
	assert.Empty(t, store.List())
}

func TestLoadNormalizesDescriptors(t *testing.T) {
	store, dir := newTestStore(t, "projects.yml", `
projects:
  - name: remote
    sourceType: git
    location: https://example.com/remote.git
  - name: nearby
    sourceType: local
    location: src/nearby
    status: READY
  - name: ""
    location: /tmp/x
  - name: bad name
    location: /tmp/y
`)
	require.NoError(t, store.Load())

	all := store.List()
	require.Len(t, all, 2)

	remote, ok := store.Get("remote")
	require.True(t, ok)
	assert.Equal(t, SourceGit, remote.SourceKind)
	assert.Equal(t, StatusNotSynced, remote.Status)
	assert.Equal(t, "main", remote.TargetBranch())
	assert.Equal(t, filepath.Join(dir, ".cache", "remote"), remote.CachePath)
	assert.DirExists(t, remote.CachePath)
	assert.Equal(t, remote.CachePath, remote.WorkDir())

	nearby, ok := store.Get("nearby")
	require.True(t, ok)
	assert.Equal(t, StatusReady, nearby.Status)
	assert.Equal(t, filepath.Join(dir, "src", "nearby"), nearby.Location)
	assert.Equal(t, nearby.Location, nearby.WorkDir())
	assert.True(t, filepath.IsAbs(nearby.CachePath))
}

func TestInferSourceKind(t *testing.T) {
	assert.Equal(t, SourceGit, inferKind("https://github.com/x/y"))
	assert.Equal(t, SourceGit, inferKind("git@github.com:x/y.git"))
	assert.Equal(t, SourceLocal, inferKind("/home/me/src"))
}

func TestReloadPreservesStatusWhenOmitted(t *testing.T) {
	store, _ := newTestStore(t, "projects.yml", `
projects:
  - name: app
    sourceType: git
    location: https://example.com/app.git
`)
	require.NoError(t, store.Load())
	require.NoError(t, store.SetStatus("app", StatusSyncing))
	require.NoError(t, store.SetStatus("app", StatusCompiling))
	require.NoError(t, store.SetStatus("app", StatusReady))

	// location changes, status omitted: descriptor replaced, status kept
	writeDescriptors(t, store.Path(), `
projects:
  - name: app
    sourceType: git
    location: https://example.com/app-moved.git
    branch: develop
  - name: other
    sourceType: git
    location: https://example.com/other.git
`, 5)

	reloaded, err := store.CheckAndReload()
	require.NoError(t, err)
	assert.True(t, reloaded)

	app, ok := store.Get("app")
	require.True(t, ok)
	assert.Equal(t, StatusReady, app.Status)
	assert.Equal(t, "https://example.com/app-moved.git", app.Location)
	assert.Equal(t, "develop", app.Branch)

	other, ok := store.Get("other")
	require.True(t, ok)
	assert.Equal(t, StatusNotSynced, other.Status)
}

func TestReloadExplicitStatusWins(t *testing.T) {
	store, _ := newTestStore(t, "projects.yml", `
projects:
  - name: app
    location: https://example.com/app.git
`)
	require.NoError(t, store.Load())
	require.NoError(t, store.SetStatus("app", StatusSyncing))
	require.NoError(t, store.SetStatus("app", StatusFailedSync))

	writeDescriptors(t, store.Path(), `
projects:
  - name: app
    location: https://example.com/app.git
    status: NOT_SYNCED
`, 5)
	_, err := store.CheckAndReload()
	require.NoError(t, err)

	app, _ := store.Get("app")
	assert.Equal(t, StatusNotSynced, app.Status)
}

func TestReloadUnknownStatusTreatedAsOmitted(t *testing.T) {
	store, _ := newTestStore(t, "projects.yml", `
projects:
  - name: app
    location: https://example.com/app.git
`)
	require.NoError(t, store.Load())
	require.NoError(t, store.SetStatus("app", StatusSyncing))

	writeDescriptors(t, store.Path(), `
projects:
  - name: app
    location: https://example.com/app.git
    status: HALF_DONE
`, 5)
	_, err := store.CheckAndReload()
	require.NoError(t, err)

	app, _ := store.Get("app")
	assert.Equal(t, StatusSyncing, app.Status)
}

func TestReloadParseErrorKeepsState(t *testing.T) {
	store, _ := newTestStore(t, "projects.yml", `
projects:
  - name: app
    location: https://example.com/app.git
`)
	require.NoError(t, store.Load())

	writeDescriptors(t, store.Path(), "projects: [\n  - name: broken\n", 5)
	reloaded, err := store.CheckAndReload()
	assert.Error(t, err)
	assert.False(t, reloaded)

	_, ok := store.Get("app")
	assert.True(t, ok)
	_, ok = store.Get("broken")
	assert.False(t, ok)
}

func TestCheckAndReloadUnchangedFile(t *testing.T) {
	store, _ := newTestStore(t, "projects.yml", "projects: []\n")
	require.NoError(t, store.Load())

	reloaded, err := store.CheckAndReload()
	require.NoError(t, err)
	assert.False(t, reloaded)
}

func TestReloadDropsRemovedProjects(t *testing.T) {
	store, _ := newTestStore(t, "projects.yml", `
projects:
  - name: a
    location: https://example.com/a.git
  - name: b
    location: https://example.com/b.git
`)
	require.NoError(t, store.Load())

	writeDescriptors(t, store.Path(), `
projects:
  - name: b
    location: https://example.com/b.git
`, 5)
	_, err := store.CheckAndReload()
	require.NoError(t, err)

	_, ok := store.Get("a")
	assert.False(t, ok)
	assert.Len(t, store.List(), 1)
}

func TestSetStatus(t *testing.T) {
	store, _ := newTestStore(t, "projects.yml", `
projects:
  - name: app
    location: https://example.com/app.git
`)
	require.NoError(t, store.Load())

	var seen []Status
	store.SetObserver(func(name string, from, to Status) {
		assert.Equal(t, "app", name)
		seen = append(seen, to)
	})

	require.NoError(t, store.SetStatus("app", StatusSyncing))
	assert.Error(t, store.SetStatus("app", StatusReady), "SYNCING cannot jump to READY")
	assert.Error(t, store.SetStatus("app", Status("BOGUS")))
	assert.ErrorIs(t, store.SetStatus("missing", StatusReady), ErrNotFound)
	require.NoError(t, store.SetStatus("app", StatusFailedUnexpectedError))

	assert.Equal(t, []Status{StatusSyncing, StatusFailedUnexpectedError}, seen)
}

func TestListReturnsCopies(t *testing.T) {
	store, _ := newTestStore(t, "projects.yml", `
projects:
  - name: app
    location: https://example.com/app.git
`)
	require.NoError(t, store.Load())

	list := store.List()
	list[0].Status = StatusReady

	app, _ := store.Get("app")
	assert.Equal(t, StatusNotSynced, app.Status)
}

func TestConcurrentReloadAndSetStatus(t *testing.T) {
	store, _ := newTestStore(t, "projects.yml", `
projects:
  - name: app
    location: https://example.com/app.git
`)
	require.NoError(t, store.Load())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = store.CheckAndReload()
		}()
		go func() {
			defer wg.Done()
			_ = store.SetStatus("app", StatusNotSynced)
			_ = store.List()
		}()
	}
	wg.Wait()

	_, ok := store.Get("app")
	assert.True(t, ok)
}

func TestResetStatusYAML(t *testing.T) {
	store, _ := newTestStore(t, "projects.yml", `# managed by hand
projects:
  - name: app
    location: https://example.com/app.git # upstream
  - name: lib
    location: https://example.com/lib.git
    status: READY
`)
	require.NoError(t, store.Load())

	require.NoError(t, store.ResetStatus("app", StatusNotSynced))
	require.NoError(t, store.ResetStatus("lib", StatusNotSynced))
	assert.Error(t, store.ResetStatus("ghost", StatusNotSynced))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "# managed by hand")
	assert.Contains(t, string(data), "# upstream")
	assert.NotContains(t, string(data), "READY")

	entries, err := yamlCodec{}.decode(data)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.NotNil(t, e.Status)
		assert.Equal(t, "NOT_SYNCED", *e.Status)
	}
}

func TestTOMLDescriptors(t *testing.T) {
	store, _ := newTestStore(t, "projects.toml", `
[[projects]]
name = "app"
sourceType = "git"
location = "https://example.com/app.git"

[[projects]]
name = "lib"
sourceType = "git"
location = "https://example.com/lib.git"
status = "READY"
`)
	require.NoError(t, store.Load())

	app, ok := store.Get("app")
	require.True(t, ok)
	assert.Equal(t, StatusNotSynced, app.Status)
	lib, _ := store.Get("lib")
	assert.Equal(t, StatusReady, lib.Status)

	require.NoError(t, store.SetStatus("app", StatusSyncing))
	writeDescriptors(t, store.Path(), `
[[projects]]
name = "app"
sourceType = "git"
location = "https://example.com/app.git"
branch = "release"
`, 5)
	_, err := store.CheckAndReload()
	require.NoError(t, err)

	app, _ = store.Get("app")
	assert.Equal(t, StatusSyncing, app.Status)
	assert.Equal(t, "release", app.Branch)

	require.NoError(t, store.ResetStatus("app", StatusNotSynced))
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	entries, err := tomlCodec{}.decode(data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Status)
	assert.Equal(t, "NOT_SYNCED", *entries[0].Status)
}

func TestTOMLUnknownKeysAreWarnings(t *testing.T) {
	store, _ := newTestStore(t, "projects.toml", `
[[projects]]
name = "app"
location = "https://example.com/app.git"
colour = "blue"
`)
	require.NoError(t, store.Load())
	_, ok := store.Get("app")
	assert.True(t, ok)
}

func TestDefaultBranchAppliesToGitProjects(t *testing.T) {
	store, _ := newTestStore(t, "projects.yml", `
projects:
  - name: remote
    location: git@example.com:team/remote.git
  - name: pinned
    location: https://example.com/pinned.git
    branch: release
`)
	store.SetDefaultBranch("trunk")
	require.NoError(t, store.Load())

	remote, ok := store.Get("remote")
	require.True(t, ok)
	assert.Equal(t, "trunk", remote.TargetBranch())

	pinned, _ := store.Get("pinned")
	assert.Equal(t, "release", pinned.TargetBranch())
}
