package domain

import "errors"

var (
	// ErrUnknownEvent is returned when an event's (contract, kind) pair has
	// no registered reducer. This is a configuration mismatch between the
	// feed and the core; processing must halt rather than drop the event.
	ErrUnknownEvent = errors.New("unknown event kind")

	// ErrDuplicateEvent is returned when an event's (txHash, logIndex) has
	// already been applied. Safe to ignore; no state was changed.
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrConsistency indicates the event contradicts indexed state (balance
	// going negative, fill exceeding quantity, tier regressing). It signals
	// either event misordering or a feed defect and is never recovered from
	// silently.
	ErrConsistency = errors.New("consistency violation")

	// ErrInvalidAmount is returned when an amount field is not a valid
	// non-negative decimal integer.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrSubscriptionFailed is returned when the chain subscription drops.
	ErrSubscriptionFailed = errors.New("subscription failed")
)
