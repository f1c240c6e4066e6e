package projects

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusNotSynced             Status = "NOT_SYNCED"
	StatusSyncing               Status = "SYNCING"
	StatusCompiling             Status = "COMPILING"
	StatusReady                 Status = "READY"
	StatusReadyNoBuildFile      Status = "READY_NO_BUILD_FILE"
	StatusFailedSync            Status = "FAILED_SYNC"
	StatusFailedMergeConflict   Status = "FAILED_MERGE_CONFLICT"
	StatusFailedBuild           Status = "FAILED_BUILD"
	StatusFailedBuildTimeout    Status = "FAILED_BUILD_TIMEOUT"
	StatusFailedBuildException  Status = "FAILED_BUILD_EXCEPTION"
	StatusFailedInvalidPath     Status = "FAILED_INVALID_PATH"
	StatusFailedUnexpectedError Status = "FAILED_UNEXPECTED_ERROR"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusNotSynced,
	StatusSyncing,
	StatusCompiling,
	StatusReady,
	StatusReadyNoBuildFile,
	StatusFailedSync,
	StatusFailedMergeConflict,
	StatusFailedBuild,
	StatusFailedBuildTimeout,
	StatusFailedBuildException,
	StatusFailedInvalidPath,
	StatusFailedUnexpectedError,
}

// transitions is the allowed-successor table used by the orchestrator.
// NOT_SYNCED (external reset), FAILED_INVALID_PATH (path vanished) and
// FAILED_UNEXPECTED_ERROR (isolated processing failure) are reachable from
// every status and are not listed.
var transitions = map[Status][]Status{
	StatusNotSynced:             {StatusSyncing, StatusCompiling},
	StatusSyncing:               {StatusCompiling, StatusFailedSync, StatusFailedMergeConflict},
	StatusCompiling:             {StatusReady, StatusReadyNoBuildFile, StatusFailedBuild, StatusFailedBuildTimeout, StatusFailedBuildException},
	StatusReady:                 nil,
	StatusReadyNoBuildFile:      nil,
	StatusFailedSync:            {StatusSyncing},
	StatusFailedMergeConflict:   {StatusSyncing},
	StatusFailedBuild:           {StatusCompiling},
	StatusFailedBuildTimeout:    {StatusCompiling},
	StatusFailedBuildException:  {StatusCompiling},
	StatusFailedInvalidPath:     {StatusCompiling},
	StatusFailedUnexpectedError: {StatusCompiling},
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown project status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the orchestrator may move a project from s to next.
func (s Status) CanTransition(next Status) bool {
	switch next {
	case s, StatusNotSynced, StatusFailedInvalidPath, StatusFailedUnexpectedError:
		return next.Valid()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NeedsSync reports whether a git project in this status is due for a clone/pull.
func (s Status) NeedsSync() bool {
	return s == StatusNotSynced || s == StatusFailedSync || s == StatusFailedMergeConflict
}

// IsReady reports READY or READY_NO_BUILD_FILE.
func (s Status) IsReady() bool {
	return s == StatusReady || s == StatusReadyNoBuildFile
}

// IsFailed reports any FAILED_* status.
func (s Status) IsFailed() bool {
	return strings.HasPrefix(string(s), "FAILED_")
}

// InProgress reports the transient SYNCING and COMPILING statuses.
func (s Status) InProgress() bool {
	return s == StatusSyncing || s == StatusCompiling
}

func (s Status) String() string {
	return string(s)
}
