package services

import (
	"errors"

	"github.com/01moynul/quillcraft-golang/internal/entitlement"
)

var (
	ErrEmptySelection     = errors.New("selection is empty")
	ErrSelectionNotFound  = errors.New("selection not found in current content")
	ErrNoContent          = errors.New("task has no content yet")
	ErrUsageNotRecorded   = errors.New("token usage could not be recorded")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// DeniedError reports an entitlement denial. The Decision carries the
// reason shown to the user.
type DeniedError struct {
	Decision entitlement.Decision
}

func (e *DeniedError) Error() string {
	return "not permitted: " + e.Decision.Reason
}

func denied(d entitlement.Decision) error {
	return &DeniedError{Decision: d}
}
