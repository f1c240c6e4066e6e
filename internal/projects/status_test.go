package projects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, st := range AllStatuses {
		got, err := ParseStatus(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	got, err := ParseStatus(" ready ")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, got)

	_, err = ParseStatus("DONE")
	assert.Error(t, err)
}

func TestStatusPredicates(t *testing.T) {
	tests := []struct {
		status     Status
		needsSync  bool
		ready      bool
		failed     bool
		inProgress bool
	}{
		{StatusNotSynced, true, false, false, false},
		{StatusSyncing, false, false, false, true},
		{StatusCompiling, false, false, false, true},
		{StatusReady, false, true, false, false},
		{StatusReadyNoBuildFile, false, true, false, false},
		{StatusFailedSync, true, false, true, false},
		{StatusFailedMergeConflict, true, false, true, false},
		{StatusFailedBuild, false, false, true, false},
		{StatusFailedBuildTimeout, false, false, true, false},
		{StatusFailedBuildException, false, false, true, false},
		{StatusFailedInvalidPath, false, false, true, false},
		{StatusFailedUnexpectedError, false, false, true, false},
	}
	require.Len(t, tests, len(AllStatuses))

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.needsSync, tt.status.NeedsSync())
			assert.Equal(t, tt.ready, tt.status.IsReady())
			assert.Equal(t, tt.failed, tt.status.IsFailed())
			assert.Equal(t, tt.inProgress, tt.status.InProgress())
		})
	}
}

func TestTransitions(t *testing.T) {
	allowed := [][2]Status{
		{StatusNotSynced, StatusSyncing},
		{StatusSyncing, StatusCompiling},
		{StatusSyncing, StatusFailedMergeConflict},
		{StatusCompiling, StatusReady},
		{StatusCompiling, StatusFailedBuildTimeout},
		{StatusFailedMergeConflict, StatusSyncing},
		{StatusReady, StatusNotSynced},
		{StatusReady, StatusFailedInvalidPath},
		{StatusCompiling, StatusFailedUnexpectedError},
		{StatusFailedInvalidPath, StatusCompiling},
		{StatusFailedBuild, StatusCompiling},
		{StatusFailedBuildTimeout, StatusCompiling},
		{StatusFailedBuildException, StatusCompiling},
	}
	for _, tr := range allowed {
		assert.True(t, tr[0].CanTransition(tr[1]), "%s -> %s", tr[0], tr[1])
	}

	rejected := [][2]Status{
		{StatusNotSynced, StatusReady},
		{StatusSyncing, StatusReady},
		{StatusFailedBuild, StatusReady},
		{StatusReady, StatusCompiling},
		{StatusReady, Status("ALMOST")},
	}
	for _, tr := range rejected {
		assert.False(t, tr[0].CanTransition(tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestDescriptorValidate(t *testing.T) {
	ok := Descriptor{Name: "app-1.x", SourceKind: SourceGit, Location: "https://e/x.git"}
	assert.NoError(t, ok.Validate())

	bad := []Descriptor{
		{Name: "", SourceKind: SourceGit, Location: "x"},
		{Name: "-app", SourceKind: SourceGit, Location: "x"},
		{Name: "app", SourceKind: "svn", Location: "x"},
		{Name: "app", SourceKind: SourceLocal},
	}
	for _, d := range bad {
		assert.Error(t, d.Validate(), "%+v", d)
	}
}
