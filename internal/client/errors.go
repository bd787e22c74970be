package client

import "errors"

var (
	// ErrDaemonNotRunning is returned when the daemon socket does not exist
	// or nothing is listening on it.
	ErrDaemonNotRunning = errors.New("daemon not running")

	// ErrPermissionDenied is returned when the socket permissions reject the
	// calling user.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when the daemon responds with 404, usually an
	// old daemon that predates the requested route.
	ErrNotFound = errors.New("404 not found")
)
