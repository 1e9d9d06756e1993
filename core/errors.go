package core

import "errors"

var (
	// ErrInvariantViolation marks conditions that should be unreachable.
	// They abort the simulation run.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrCatalogMismatch is returned when policies built over different
	// catalogs are combined.
	ErrCatalogMismatch = errors.New("catalog mismatch")
	ErrInvalidCatalog  = errors.New("invalid catalog")
	ErrEmptyDeck       = errors.New("cannot draw from an empty deck")
	ErrEmptyPile       = errors.New("supply pile is empty")
	ErrUnknownItem     = errors.New("unknown item")

	ErrTooManyErrors = errors.New("too many errors")
)
