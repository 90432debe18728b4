package core

import (
	"errors"
	"time"
)

// TimeoutConfig configures timeouts for the live connection.
type TimeoutConfig struct {
	// ComponentMount bounds Mount calls.
	ComponentMount time.Duration

	// ComponentEvent bounds HandleEvent plus the re-render that follows.
	ComponentEvent time.Duration

	// WebSocketRead is how long a connection may stay silent before it is
	// considered dead. Clients heartbeat well within this.
	WebSocketRead time.Duration

	// WebSocketWrite bounds a single frame write.
	WebSocketWrite time.Duration

	// SessionCleanup is the interval between idle-session sweeps.
	SessionCleanup time.Duration

	// SessionTTL is how long a session may be idle before it is closed.
	SessionTTL time.Duration
}

// DefaultTimeoutConfig returns the production defaults.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		ComponentMount: 5 * time.Second,
		ComponentEvent: 3 * time.Second,
		WebSocketRead:  60 * time.Second,
		WebSocketWrite: 10 * time.Second,
		SessionCleanup: time.Minute,
		SessionTTL:     30 * time.Minute,
	}
}

// RelaxedTimeoutConfig returns longer timeouts for local development.
func RelaxedTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		ComponentMount: 30 * time.Second,
		ComponentEvent: 30 * time.Second,
		WebSocketRead:  5 * time.Minute,
		WebSocketWrite: 30 * time.Second,
		SessionCleanup: 5 * time.Minute,
		SessionTTL:     2 * time.Hour,
	}
}

// Configuration errors.
var (
	ErrInvalidTimeout        = errors.New("timeouts must be positive")
	ErrInvalidMaxMessageSize = errors.New("MaxMessageSize must be positive")
	ErrInvalidMaxSessions    = errors.New("MaxSessions must not be negative")
)

// Config groups the live connection settings.
type Config struct {
	Timeouts TimeoutConfig

	// MaxMessageSize caps an inbound websocket frame.
	MaxMessageSize int64

	// AllowedOrigins lists extra origins allowed to open the websocket.
	// Same-origin requests are always accepted.
	AllowedOrigins []string

	// MaxSessions caps concurrent live sessions; the oldest is evicted when
	// a new one would exceed it. Zero means unlimited.
	MaxSessions int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeouts:       DefaultTimeoutConfig(),
		MaxMessageSize: 64 * 1024,
		MaxSessions:    10000,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	t := c.Timeouts
	for _, d := range []time.Duration{t.ComponentMount, t.ComponentEvent, t.WebSocketRead, t.WebSocketWrite, t.SessionCleanup, t.SessionTTL} {
		if d <= 0 {
			return ErrInvalidTimeout
		}
	}
	if c.MaxMessageSize <= 0 {
		return ErrInvalidMaxMessageSize
	}
	if c.MaxSessions < 0 {
		return ErrInvalidMaxSessions
	}
	return nil
}
