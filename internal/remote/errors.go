package remote

import "errors"

// Errors returned by the remote. Compare with errors.Is.
var (
	// ErrNotConnected is returned when publishing without a broker connection.
	ErrNotConnected = errors.New("remote: not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("remote: connection failed")

	// ErrSubscribeFailed is returned when the command topic cannot be subscribed.
	ErrSubscribeFailed = errors.New("remote: subscribe failed")

	// ErrInvalidCommand is returned for a payload that is not a command.
	ErrInvalidCommand = errors.New("remote: invalid command")

	// ErrUnknownAction is returned for a command whose action is not recognised.
	ErrUnknownAction = errors.New("remote: unknown action")
)
