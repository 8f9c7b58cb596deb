package domain

import "errors"

var (
	// ErrInvalidInput covers empty required fields, references to missing
	// labels or entries, and malformed identifiers.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyExists is returned when a label short name is taken.
	ErrAlreadyExists = errors.New("already exists")
)
