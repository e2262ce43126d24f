package family

import "errors"

var (
	// ErrInvalidRule is returned when a recurrence rule fails validation at
	// family create or rule update time. Invalid rules are never defaulted.
	ErrInvalidRule = errors.New("invalid recurrence rule")

	// ErrNotFound is returned when the referenced family, instance, client,
	// or template does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPrecondition is returned for lifecycle transitions attempted from
	// the wrong state: confirm/skip on a non-pending instance, restart or
	// delete on a non-stopped family, restart with a past date. The visible
	// state is left unchanged.
	ErrPrecondition = errors.New("precondition violation")

	// ErrAnchorMissing is returned when occurrence computation has no
	// reference date to start from.
	ErrAnchorMissing = errors.New("no anchor date for occurrence computation")
)
