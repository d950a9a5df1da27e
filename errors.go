package mdrun

import (
	"errors"
	"fmt"
)

// Error type constants for classification and matching. Every RunError is
// fatal to the workflow step that raised it: execution failures, missing or
// malformed checkpoints, and structure inconsistencies all abort the run with
// no retry. The analyzer's warnings are deliberately not errors; they are the
// feedback signal that drives the extend/accept decision.
const (
	// ErrorTypeExecution indicates the engine invocation itself failed.
	ErrorTypeExecution = "execution_failed"

	// ErrorTypeCheckpointNotFound indicates the engine produced no checkpoint
	// files matching the expected pattern after a successful-looking run.
	ErrorTypeCheckpointNotFound = "checkpoint_not_found"

	// ErrorTypeCheckpointName indicates a checkpoint filename whose step-count
	// suffix cannot be parsed, so the restart point cannot be determined.
	ErrorTypeCheckpointName = "checkpoint_name_malformed"

	// ErrorTypeStructure indicates the structure state is missing or
	// inconsistent, e.g. a checkpoint whose atom count does not match the
	// system.
	ErrorTypeStructure = "structure_mismatch"

	// ErrorTypeEncoding indicates an energy-expression term that cannot be
	// encoded for the engine, e.g. an out-of-domain reference angle.
	ErrorTypeEncoding = "encoding_unsupported"

	// ErrorTypeNotConverged indicates a convergence-controlled segment hit
	// the configured iteration ceiling before its properties converged.
	ErrorTypeNotConverged = "not_converged"
)

// RunError is a structured fatal error with classification. It supports Go's
// error wrapping patterns with Unwrap().
type RunError struct {
	Type    string `json:"type"`
	Cause   string `json:"cause"`
	Wrapped error  `json:"-"`
}

// Error implements the error interface.
func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Cause)
}

// Unwrap supports errors.Is and errors.As.
func (e *RunError) Unwrap() error {
	return e.Wrapped
}

// NewRunError creates a RunError with the given type and formatted cause.
func NewRunError(errorType, format string, args ...any) *RunError {
	return &RunError{Type: errorType, Cause: fmt.Sprintf(format, args...)}
}

// WrapRunError creates a RunError wrapping an underlying error.
func WrapRunError(errorType string, err error, format string, args ...any) *RunError {
	return &RunError{
		Type:    errorType,
		Cause:   fmt.Sprintf(format, args...) + ": " + err.Error(),
		Wrapped: err,
	}
}

// ErrorType returns the classification of err, or "" if err is not a RunError.
func ErrorType(err error) string {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Type
	}
	return ""
}

// IsErrorType reports whether err is a RunError of the given type.
func IsErrorType(err error, errorType string) bool {
	return ErrorType(err) == errorType
}
