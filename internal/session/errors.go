package session

import "errors"

// Sentinel errors returned by the lifecycle engine. Handlers map these to
// HTTP statuses; everything else is a server error.
var (
	// ErrSessionNotFound covers both a missing session and an
	// ownership-scoped lookup by a non-owner, so ids cannot be enumerated.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotAccepting is returned for joins against a non-LOBBY session.
	ErrNotAccepting = errors.New("session is not accepting participants")

	// ErrSessionFull is returned when the capacity check fails.
	ErrSessionFull = errors.New("session is full")

	// ErrInvalidToken is returned for any unusable participant
	// credential: unknown, revoked and expired all read the same.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrIllegalTransition rejects a status change not in the state table.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrTerminalState rejects mutations of ENDED/ABANDONED sessions.
	ErrTerminalState = errors.New("session is in a terminal state")

	// ErrCodeExhausted is returned when every code attempt collided.
	ErrCodeExhausted = errors.New("could not allocate a unique session code")

	// ErrForbidden rejects callers without visibility on a session.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation wraps malformed caller input.
	ErrValidation = errors.New("invalid input")
)
