package approval

import "errors"

var (
	// ErrNotFound is returned when no request matches the given id or short code
	ErrNotFound = errors.New("approval request not found")

	// ErrAlreadyDecided is returned when a decision is attempted on a
	// request that already reached a terminal status
	ErrAlreadyDecided = errors.New("approval request already decided")

	// ErrMissingReason is returned when a rejection carries an empty reason
	ErrMissingReason = errors.New("rejection reason is required")

	// ErrNotApproved is returned when consuming a short code whose request
	// is not approved
	ErrNotApproved = errors.New("approval request not approved")

	// ErrAlreadyConsumed is returned when a spent short code is replayed
	ErrAlreadyConsumed = errors.New("short code already consumed")

	// ErrShortCodeExhausted is returned when short code generation keeps
	// colliding with active codes; this indicates a saturated code space
	// and is an internal invariant violation, not a user error
	ErrShortCodeExhausted = errors.New("short code generation exhausted retries")

	// ErrInvalidKind is returned when a request names an unknown action kind
	ErrInvalidKind = errors.New("unknown action kind")
)
