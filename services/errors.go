package services

import (
	"errors"
	"fmt"

	"task-tracker/policy"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrRepositoryFault  = errors.New("repository unavailable")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrConflict         = errors.New("conflict")
)

// PermissionError carries the policy's reason so callers can explain a denial.
// errors.Is(err, ErrPermissionDenied) holds for every PermissionError.
type PermissionError struct {
	Reason policy.Reason
	Kind   policy.Kind
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPermissionDenied, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrPermissionDenied
}

func denied(d policy.Decision) error {
	return &PermissionError{Reason: d.Reason, Kind: d.Kind}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func repositoryFault(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrRepositoryFault, op, err)
}
