// Package client is the typed API client for the tinge daemon. Every daemon
// route has a wrapper here so callers never deal with paths or JSON bodies.
package client

import (
	internal "github.com/maniglio/tinge/internal/client"
)

// Client wraps the low-level unix socket client with typed calls.
type Client struct {
	*internal.Client
}

// NewClient returns a Client for the daemon listening at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{internal.NewClient(socketPath)}
}
