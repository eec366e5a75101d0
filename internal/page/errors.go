package page

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks field or structural problems the user can correct.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when the persisted revision no longer matches the one read.
	ErrConflict = errors.New("entity was modified concurrently")

	// ErrNotFound is returned when a referenced entity no longer exists.
	ErrNotFound = errors.New("entity not found")

	// ErrSectionNotInitialized is returned when a section is populated before Init.
	ErrSectionNotInitialized = errors.New("detail section not initialized")

	// ErrNoSelection is returned when an operation needs a current entity.
	ErrNoSelection = errors.New("no entity selected")

	// ErrNotPersisted is returned when an operation needs an entity with identity.
	ErrNotPersisted = errors.New("entity has not been saved")

	// ErrChildNotFound is returned when a relation child cannot be matched by key.
	ErrChildNotFound = errors.New("child not found")
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationError collects field errors for a single save attempt.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError reports a stale revision.
type ConflictError struct {
	ID       string
	Expected int64
	Actual   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s expected revision %d, found %d", ErrConflict, e.ID, e.Expected, e.Actual)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// SaveErrorKind tags a failed save.
type SaveErrorKind int

const (
	SaveFailedOther SaveErrorKind = iota
	SaveFailedValidation
	SaveFailedConflict
)

func (k SaveErrorKind) String() string {
	switch k {
	case SaveFailedValidation:
		return "validation"
	case SaveFailedConflict:
		return "conflict"
	default:
		return "other"
	}
}

// SaveError is the tagged failure of a save: Validation(fields),
// Conflict(expected, actual) or Other(message).
type SaveError struct {
	Kind     SaveErrorKind
	Fields   []FieldError
	Expected int64
	Actual   int64
	Message  string
	Err      error
}

func (e *SaveError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *SaveError) Unwrap() error { return e.Err }

// classifySaveError maps any error returned by validation or the service
// onto the three save failure kinds.
func classifySaveError(err error) *SaveError {
	var se *SaveError
	if errors.As(err, &se) {
		return se
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &SaveError{Kind: SaveFailedValidation, Fields: ve.Fields, Message: err.Error(), Err: err}
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return &SaveError{Kind: SaveFailedConflict, Expected: ce.Expected, Actual: ce.Actual, Message: err.Error(), Err: err}
	}
	switch {
	case errors.Is(err, ErrValidation):
		return &SaveError{Kind: SaveFailedValidation, Message: err.Error(), Err: err}
	case errors.Is(err, ErrConflict):
		return &SaveError{Kind: SaveFailedConflict, Message: err.Error(), Err: err}
	}
	return &SaveError{Kind: SaveFailedOther, Message: err.Error(), Err: err}
}
