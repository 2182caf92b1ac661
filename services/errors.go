package services

import "errors"

// Engine error taxonomy. Handlers map these with errors.Is; none of them
// leaves partial state behind.
var (
	// ErrMalformedEvent means the payload is missing a field its type
	// requires. The event is dropped and logged, never partially applied.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrDuplicateEvent means the event ID was already applied. Replays are
	// defined behavior: the caller gets an empty delta, not a failure.
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrUnknownUser means an event references a user that cannot be
	// resolved at all (empty ID). Users merely missing a stats row get a
	// zero-state row created instead.
	ErrUnknownUser = errors.New("unknown user")

	// ErrInsufficientData means a month close was requested with no
	// recorded checkpoints; the month stays open.
	ErrInsufficientData = errors.New("insufficient competition data")

	// ErrUnknownBadge means a badge ID is not in the catalog.
	ErrUnknownBadge = errors.New("unknown badge")

	// ErrNoPartnership means a partnership-scoped operation was requested
	// for a user with no active partner link.
	ErrNoPartnership = errors.New("no active partnership")
)
