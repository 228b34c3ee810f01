package services

import "errors"

// Error taxonomy shared by all engine services. Handlers match these with
// errors.Is to pick response codes; messages carry the specifics.
var (
	// ErrNotFound: the referenced entity does not exist or belongs to a
	// different project. No state was changed.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState: the entity is not in a state from which the
	// requested transition is allowed. Rejected before any mutation.
	ErrInvalidState = errors.New("invalid state")

	// ErrBusinessRule: a funder or balance rule blocks the operation
	// (insufficient transfer balance, missing document, negative amount).
	ErrBusinessRule = errors.New("business rule violation")

	// ErrDuplicateSource: a funding source with that name already exists
	// for the project.
	ErrDuplicateSource = errors.New("duplicate funding source")

	// ErrSourceInUse: the funding source is still referenced by expenses.
	ErrSourceInUse = errors.New("funding source in use")
)
