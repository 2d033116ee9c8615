package portal

import "errors"

var (
	// ErrStillInUse is returned when an anchor is retired while at least one
	// strong portal to it exists.
	ErrStillInUse = errors.New("anchor still in use (at least one portal exists)")

	// ErrPoisoned is returned by every access to and retirement of a mutable
	// anchor after a write through it did not complete normally.
	ErrPoisoned = errors.New("anchor poisoned")

	// ErrDropped is returned when upgrading a weak portal whose anchor has
	// already been retired.
	ErrDropped = errors.New("anchor dropped")

	// ErrBorrowed is returned by local portals when the requested borrow
	// conflicts with one that is still active.
	ErrBorrowed = errors.New("anchor already borrowed")
)
