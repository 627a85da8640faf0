package apperrors

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrActiveSessionExists = errors.New("session already executing")

	// ErrControlUnavailable covers every handshake or request/response failure
	// against the recording control service.
	ErrControlUnavailable = errors.New("recording control unavailable")

	// ErrProbeUnsupported marks a window or process probe that can never work
	// on this host. Any other probe error is transient.
	ErrProbeUnsupported = errors.New("probe unsupported on this platform")
)
