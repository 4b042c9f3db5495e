package domain

import "errors"

// ErrSessionNotFound is returned when no session state has been persisted yet.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionOpenFailed is returned when the adapter could not surface the interactive session.
var ErrSessionOpenFailed = errors.New("failed to open interactive session")

// ErrInvalidRequest is returned when a manually submitted request is incomplete.
var ErrInvalidRequest = errors.New("invalid transaction request")

// ErrLoopStopped is returned when an event is submitted to a loop that is no longer running.
var ErrLoopStopped = errors.New("event loop stopped")
