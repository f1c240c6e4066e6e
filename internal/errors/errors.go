// Package errors defines the coded error type shared by the lifecycle engine,
// the analysis service and the transports.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents stable error codes for all failure modes surfaced to callers
type ErrorCode string

const (
	// ProjectNotFound indicates no descriptor exists with the requested name
	ProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"
	// ProjectNotReady indicates the project has not reached an analyzable status
	ProjectNotReady ErrorCode = "PROJECT_NOT_READY"
	// TargetNotFound indicates the specifier did not resolve to a declaration
	TargetNotFound ErrorCode = "TARGET_NOT_FOUND"
	// InvalidSpecifier indicates a malformed target specifier
	InvalidSpecifier ErrorCode = "INVALID_SPECIFIER"
	// ModelBuildFailed indicates the source model could not be constructed
	ModelBuildFailed ErrorCode = "MODEL_BUILD_FAILED"
	// ConfigInvalid indicates a malformed configuration or descriptor file
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InvalidParameter indicates a bad request parameter
	InvalidParameter ErrorCode = "INVALID_PARAMETER"
	// RateLimited indicates too many analysis requests
	RateLimited ErrorCode = "RATE_LIMITED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests editing the descriptor file
	EditConfig FixActionType = "edit-config"
	// Wait suggests retrying later
	Wait FixActionType = "wait"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// SeekerError is an error with a stable code and optional remediation hints.
type SeekerError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// NewSeekerError creates a new SeekerError
func NewSeekerError(code ErrorCode, message string, cause error, suggestedFixes []FixAction) *SeekerError {
	return &SeekerError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
	}
}

// Error implements the error interface
func (e *SeekerError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *SeekerError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *SeekerError) WithDetails(details interface{}) *SeekerError {
	e.Details = details
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ProjectNotFound: {
		{
			Type:        RunCommand,
			Command:     "javaseeker projects list",
			Safe:        true,
			Description: "List the projects defined in the descriptor file",
		},
	},
	ProjectNotReady: {
		{
			Type:        Wait,
			Description: "Wait for the project to finish syncing and compiling",
		},
		{
			Type:        RunCommand,
			Command:     "javaseeker projects show ${project}",
			Safe:        true,
			Description: "Inspect the current lifecycle status",
		},
	},
	TargetNotFound: {
		{
			Type:        EditConfig,
			Description: "Use a fully qualified type name, optionally with #method(ParamType,...)",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "javaseeker config show",
			Safe:        true,
			Description: "Show the effective configuration",
		},
	},
	RateLimited: {
		{
			Type:        Wait,
			Description: "Retry after a short delay",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}

// CodeOf returns the code of the first SeekerError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var se *SeekerError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return InternalError
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	var se *SeekerError
	return stderrors.As(err, &se) && se.Code == code
}

func NewProjectNotFoundError(name string) *SeekerError {
	return NewSeekerError(
		ProjectNotFound,
		fmt.Sprintf("project not found: %s", name),
		nil,
		GetSuggestedFixes(ProjectNotFound),
	).WithDetails(map[string]string{"project": name})
}

// NewProjectNotReadyError reports the current status so callers can decide
// whether to wait or reset the project.
func NewProjectNotReadyError(name, status string) *SeekerError {
	return NewSeekerError(
		ProjectNotReady,
		fmt.Sprintf("project %q is not ready (status %s)", name, status),
		nil,
		GetSuggestedFixes(ProjectNotReady),
	).WithDetails(map[string]string{"project": name, "status": status})
}

func NewTargetNotFoundError(project, specifier, note string) *SeekerError {
	msg := fmt.Sprintf("target not found in project %q: %s", project, specifier)
	if note != "" {
		msg += " (" + note + ")"
	}
	return NewSeekerError(TargetNotFound, msg, nil, GetSuggestedFixes(TargetNotFound)).
		WithDetails(map[string]string{"project": project, "target": specifier})
}

func NewInvalidSpecifierError(specifier, reason string) *SeekerError {
	return NewSeekerError(InvalidSpecifier, fmt.Sprintf("invalid specifier %q: %s", specifier, reason), nil, nil)
}

func NewInvalidParameterError(param, reason string) *SeekerError {
	msg := "invalid parameter: " + param
	if reason != "" {
		msg += ": " + reason
	}
	return NewSeekerError(InvalidParameter, msg, nil, nil)
}

func NewModelBuildError(project string, cause error) *SeekerError {
	return NewSeekerError(ModelBuildFailed, fmt.Sprintf("failed to build source model for %q", project), cause, nil)
}

func NewConfigError(message string, cause error) *SeekerError {
	return NewSeekerError(ConfigInvalid, message, cause, GetSuggestedFixes(ConfigInvalid))
}

func NewInternalError(message string, cause error) *SeekerError {
	return NewSeekerError(InternalError, message, cause, nil)
}

func NewRateLimitedError(retryAfter time.Duration) *SeekerError {
	return NewSeekerError(RateLimited, "too many analysis requests", nil, GetSuggestedFixes(RateLimited)).
		WithDetails(map[string]int64{"retryAfterMs": retryAfter.Milliseconds()})
}
