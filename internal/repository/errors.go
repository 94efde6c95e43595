package repository

import "errors"

var (
	// ErrNotFound is returned when no live record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrStateConflict is returned by conditional writes when the stored state or
	// version no longer matches what the caller observed.
	ErrStateConflict = errors.New("record changed concurrently")
	// ErrDuplicateTicketNumber is returned when a ticket number is already taken in the organization.
	ErrDuplicateTicketNumber = errors.New("ticket number already used in organization")
)
