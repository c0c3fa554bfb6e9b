package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no document or row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional write lost a race.
	ErrConflict = errors.New("version conflict")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate key")
)
