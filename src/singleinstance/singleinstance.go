package singleinstance

// Single-instance ownership and run-once delegation over loopback TCP.
//
// Wire format, one request per connection:
//
//	PING\n                 -> PONG\n
//	EXPLAIN {json}\n       -> SUCCESS\n<text> | ERROR\n<message>
//
// The server closes the connection after the response.

import (
	"context"
)

// Server owns the TCP endpoint and answers delegated requests.
type Server interface {
	// Start binds the first port of the configured range and accepts clients.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	Request() Request
	RespondSuccess(text string) error
	RespondError(msg string) error
	Close() error
}

// Request is a delegated explain request. An empty Text asks the resident to
// capture the current selection itself; an empty Language uses its default.
type Request struct {
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`
}

// Client delegates explain requests to a running resident.
type Client interface {
	// TryExplain scans the port range and hands req to the resident.
	// If no resident is found, returns delegated=false, err=nil.
	TryExplain(ctx context.Context, req Request) (delegated bool, text string, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
