package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// StaleRevisionError is returned when an update was based on an old revision.
type StaleRevisionError struct {
	ID       string
	Expected int64
	Actual   int64
}

func (e *StaleRevisionError) Error() string {
	return fmt.Sprintf("stale revision for %s: have %d, stored %d", e.ID, e.Expected, e.Actual)
}
