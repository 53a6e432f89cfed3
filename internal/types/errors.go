package types

import (
	"errors"
	"fmt"
)

// WorkflowErrorCode identifies a specific workflow error class.
type WorkflowErrorCode string

const (
	// ErrCodeNotFound indicates a record lookup missed.
	ErrCodeNotFound WorkflowErrorCode = "not_found"

	// ErrCodeAlreadyExists indicates a duplicate record creation.
	ErrCodeAlreadyExists WorkflowErrorCode = "already_exists"

	// ErrCodeNotOwner indicates a stale or racing agent tried to act on a
	// record it does not own.
	ErrCodeNotOwner WorkflowErrorCode = "not_owner"

	// ErrCodeUnknownPhase indicates a phase graph lookup missed.
	ErrCodeUnknownPhase WorkflowErrorCode = "unknown_phase"

	// ErrCodeRemoteUnavailable indicates the primary store could not be
	// reached and the mirror fallback was (or should be) used.
	ErrCodeRemoteUnavailable WorkflowErrorCode = "remote_store_unavailable"

	// ErrCodeAgentFailed indicates an agent executor reported failure.
	ErrCodeAgentFailed WorkflowErrorCode = "agent_execution_failed"

	// ErrCodeValidation indicates invalid input or configuration.
	ErrCodeValidation WorkflowErrorCode = "validation_failed"
)

// WorkflowError is the error type surfaced by the orchestration core.
// It carries a code for programmatic matching, a human-readable message,
// an optional wrapped cause, and free-form context.
type WorkflowError struct {
	Code    WorkflowErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *WorkflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As traversal.
func (e *WorkflowError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a WorkflowError with the same code.
func (e *WorkflowError) Is(target error) bool {
	var wfErr *WorkflowError
	if errors.As(target, &wfErr) {
		return e.Code == wfErr.Code
	}
	return false
}

// WithContext attaches contextual information to the error.
func (e *WorkflowError) WithContext(key string, value any) *WorkflowError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewWorkflowError creates a WorkflowError with the given code and message.
func NewWorkflowError(code WorkflowErrorCode, message string) *WorkflowError {
	return &WorkflowError{Code: code, Message: message, Context: make(map[string]any)}
}

// WrapWorkflowError wraps an existing error with a workflow error code.
func WrapWorkflowError(code WorkflowErrorCode, message string, cause error) *WorkflowError {
	return &WorkflowError{Code: code, Message: message, Cause: cause, Context: make(map[string]any)}
}

// NewNotFoundError creates a record-not-found error.
func NewNotFoundError(postID string) *WorkflowError {
	return NewWorkflowError(ErrCodeNotFound, fmt.Sprintf("workflow record not found: %s", postID)).
		WithContext("post_id", postID)
}

// NewAlreadyExistsError creates a duplicate-creation error.
func NewAlreadyExistsError(postID string) *WorkflowError {
	return NewWorkflowError(ErrCodeAlreadyExists, fmt.Sprintf("workflow record already exists: %s", postID)).
		WithContext("post_id", postID)
}

// NewNotOwnerError creates an ownership precondition error.
func NewNotOwnerError(postID, claimant, owner string) *WorkflowError {
	return NewWorkflowError(
		ErrCodeNotOwner,
		fmt.Sprintf("agent %s does not own record %s (owner: %s)", claimant, postID, owner),
	).WithContext("post_id", postID).
		WithContext("claimant", claimant).
		WithContext("owner", owner)
}

// NewUnknownPhaseError creates a phase graph lookup error.
func NewUnknownPhaseError(phase string) *WorkflowError {
	return NewWorkflowError(ErrCodeUnknownPhase, fmt.Sprintf("unknown phase: %s", phase)).
		WithContext("phase", phase)
}

// NewRemoteUnavailableError wraps a primary store failure.
func NewRemoteUnavailableError(operation string, cause error) *WorkflowError {
	return WrapWorkflowError(
		ErrCodeRemoteUnavailable,
		fmt.Sprintf("primary store %s failed", operation),
		cause,
	).WithContext("operation", operation)
}

// NewAgentFailedError wraps an agent execution failure.
func NewAgentFailedError(agent string, cause error) *WorkflowError {
	return WrapWorkflowError(
		ErrCodeAgentFailed,
		fmt.Sprintf("agent %s execution failed", agent),
		cause,
	).WithContext("agent", agent)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *WorkflowError {
	return NewWorkflowError(ErrCodeValidation, message)
}

// IsNotFound checks if an error is a record-not-found error.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsAlreadyExists checks if an error is a duplicate-creation error.
func IsAlreadyExists(err error) bool {
	return hasCode(err, ErrCodeAlreadyExists)
}

// IsNotOwner checks if an error is an ownership precondition error.
func IsNotOwner(err error) bool {
	return hasCode(err, ErrCodeNotOwner)
}

// IsUnknownPhase checks if an error is a phase graph lookup error.
func IsUnknownPhase(err error) bool {
	return hasCode(err, ErrCodeUnknownPhase)
}

// IsRemoteUnavailable checks if an error is a primary store failure.
func IsRemoteUnavailable(err error) bool {
	return hasCode(err, ErrCodeRemoteUnavailable)
}

// IsAgentFailed checks if an error is an agent execution failure.
func IsAgentFailed(err error) bool {
	return hasCode(err, ErrCodeAgentFailed)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func hasCode(err error, code WorkflowErrorCode) bool {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Code == code
	}
	return false
}
