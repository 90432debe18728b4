// Package transport carries protocol messages over a websocket. Frames are
// encoded with the codec negotiated through the websocket subprotocol.
package transport

import (
	"errors"
	"time"
)

// Common transport errors.
var (
	ErrNotConnected     = errors.New("transport not connected")
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendTimeout      = errors.New("send timeout")
	ErrOriginNotAllowed = errors.New("origin not allowed")
)

// Config holds transport configuration.
type Config struct {
	// ReadTimeout closes the connection after this long without a frame.
	ReadTimeout time.Duration

	// WriteTimeout bounds a frame write and a blocked Send.
	WriteTimeout time.Duration

	// PingInterval is how often websocket pings are sent.
	PingInterval time.Duration

	// MaxMessageSize is the maximum inbound frame size in bytes.
	MaxMessageSize int64

	// SendBufferSize is the size of the outbound queue.
	SendBufferSize int

	// ReceiveBufferSize is the size of the inbound queue.
	ReceiveBufferSize int

	// AllowedOrigins lists cross-origin hosts allowed to connect. "*"
	// allows any origin. Same-origin connections are always allowed.
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		PingInterval:      30 * time.Second,
		MaxMessageSize:    64 * 1024,
		SendBufferSize:    64,
		ReceiveBufferSize: 64,
	}
}
