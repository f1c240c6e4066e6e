package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNewSeekerError(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewSeekerError(InternalError, "write failed", cause, nil)

	if err.Code != InternalError {
		t.Errorf("Code = %v, want %v", err.Code, InternalError)
	}
	if err.Message != "write failed" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
}

func TestSeekerError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *SeekerError
		want string
	}{
		{
			name: "without cause",
			err:  NewSeekerError(ProjectNotFound, "project not found: demo", nil, nil),
			want: "[PROJECT_NOT_FOUND] project not found: demo",
		},
		{
			name: "with cause",
			err:  NewSeekerError(ModelBuildFailed, "model", fmt.Errorf("boom"), nil),
			want: "[MODEL_BUILD_FAILED] model: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewProjectNotReadyError("demo", "SYNCING"))
	if got := CodeOf(wrapped); got != ProjectNotReady {
		t.Errorf("CodeOf(wrapped) = %v, want %v", got, ProjectNotReady)
	}
	if got := CodeOf(stderrors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
	if !Is(wrapped, ProjectNotReady) {
		t.Error("Is(wrapped, ProjectNotReady) = false")
	}
	if Is(wrapped, TargetNotFound) {
		t.Error("Is(wrapped, TargetNotFound) = true")
	}
}

func TestProjectNotReadyIncludesStatus(t *testing.T) {
	err := NewProjectNotReadyError("demo", "FAILED_BUILD")
	if !strings.Contains(err.Error(), "FAILED_BUILD") {
		t.Errorf("expected status in message, got %q", err.Error())
	}
	details, ok := err.Details.(map[string]string)
	if !ok || details["status"] != "FAILED_BUILD" {
		t.Errorf("Details = %#v", err.Details)
	}
	if len(err.SuggestedFixes) == 0 {
		t.Error("expected suggested fixes")
	}
}

func TestTargetNotFoundNote(t *testing.T) {
	err := NewTargetNotFoundError("demo", "Missing", "simple-name lookup attempted")
	if !strings.Contains(err.Message, "simple-name lookup attempted") {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	if fixes := GetSuggestedFixes(ProjectNotFound); len(fixes) != 1 || fixes[0].Type != RunCommand {
		t.Errorf("GetSuggestedFixes(ProjectNotFound) = %#v", fixes)
	}
	if fixes := GetSuggestedFixes(InternalError); fixes != nil {
		t.Errorf("GetSuggestedFixes(InternalError) = %#v, want nil", fixes)
	}
}

func TestRateLimitedDetails(t *testing.T) {
	err := NewRateLimitedError(1500 * time.Millisecond)
	if err.Code != RateLimited {
		t.Errorf("Code = %s, want %s", err.Code, RateLimited)
	}
	details, ok := err.Details.(map[string]int64)
	if !ok || details["retryAfterMs"] != 1500 {
		t.Errorf("Details = %v", err.Details)
	}
}
