// Package common defines the sentinel errors shared by the reconciliation
// layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrStorageFailure wraps any local query/execute error.
	ErrStorageFailure = errors.New("db error")

	// Remote gateway errors.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	ErrRemoteRejected    = errors.New("remote rejected")
	ErrAuthExpired       = errors.New("auth expired")

	// Record-level errors raised by the engine and transformers.
	ErrMissingDependency   = errors.New("missing dependency")
	ErrTransformValidation = errors.New("transform validation")
	ErrBeforeCutoff        = errors.New("before cutoff")
)

// RemoteError carries the remote status and message of a failed gateway call.
// It unwraps to its Kind, so errors.Is(err, ErrRemoteRejected) works.
type RemoteError struct {
	Kind    error
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%v: status %d: %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Kind }

// Kind names the taxonomy class of err for summaries and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingDependency):
		return "missing_dependency"
	case errors.Is(err, ErrTransformValidation):
		return "transform_validation"
	case errors.Is(err, ErrBeforeCutoff):
		return "before_cutoff"
	case errors.Is(err, ErrAuthExpired):
		return "auth_expired"
	case errors.Is(err, ErrRemoteRejected):
		return "remote_rejected"
	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"
	case errors.Is(err, ErrStorageFailure):
		return "storage_failure"
	case errors.Is(err, ErrorNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// StorageError wraps a driver error as ErrStorageFailure.
func StorageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}
