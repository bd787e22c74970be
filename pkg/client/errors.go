package client

import (
	internal "github.com/maniglio/tinge/internal/client"
)

// The sentinels are produced by the socket layer and re-exported here so
// callers only need this package for errors.Is checks.
var (
	// ErrDaemonNotRunning is returned when the daemon is not running.
	ErrDaemonNotRunning = internal.ErrDaemonNotRunning

	// ErrPermissionDenied is returned when the user does not have permission
	// to access the daemon socket.
	ErrPermissionDenied = internal.ErrPermissionDenied

	// ErrNotFound is returned when 404 is returned from the daemon.
	ErrNotFound = internal.ErrNotFound
)
