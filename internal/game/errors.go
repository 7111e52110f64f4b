package game

import "errors"

// Sentinel errors for the session operation set. Handlers translate these to
// HTTP statuses; everything here is recoverable at the request boundary.
var (
	// ErrNotFound covers unknown sessions and, for joinRandom, "no open room".
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is an action attempted in the wrong phase: already
	// started, countdown running, dealer playing, or match finished.
	ErrInvalidState = errors.New("invalid state")
	// ErrForbidden is acting out of turn or joining a full room.
	ErrForbidden = errors.New("forbidden")
	// ErrBadRequest is a malformed payload: missing name, unknown player.
	ErrBadRequest = errors.New("bad request")
)
