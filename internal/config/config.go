// Package config loads moss configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for client-side daemon timeouts.
const (
	DefaultConnectTimeout = 2 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultReadTimeout    = 30 * time.Second
)

// Config holds runtime configuration for CLI invocations.
type Config struct {
	// NoDaemon disables daemon usage entirely; commands fall back to
	// direct index access.
	NoDaemon bool

	// SocketPath overrides the per-project socket path when set.
	SocketPath string

	// ConnectTimeout bounds dialing the daemon socket.
	ConnectTimeout time.Duration

	// WriteTimeout bounds writing one request line.
	WriteTimeout time.Duration

	// ReadTimeout bounds reading one response line.
	ReadTimeout time.Duration
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		ConnectTimeout: DefaultConnectTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		ReadTimeout:    DefaultReadTimeout,
	}
}

// LoadFromEnv reads configuration from environment variables.
// Supports the following variables:
//   - MOSS_NO_DAEMON: "1" or "true" disables the daemon path
//   - MOSS_SOCKET: override the daemon socket path
//   - MOSS_READ_TIMEOUT_SECS: client read timeout in seconds
//   - MOSS_WRITE_TIMEOUT_SECS: client write timeout in seconds
func LoadFromEnv() Config {
	cfg := Default()

	if v := os.Getenv("MOSS_NO_DAEMON"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			cfg.NoDaemon = true
		}
	}

	if v := os.Getenv("MOSS_SOCKET"); v != "" {
		cfg.SocketPath = v
	}

	if v := os.Getenv("MOSS_READ_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.ReadTimeout = time.Duration(secs) * time.Second
		}
	}

	if v := os.Getenv("MOSS_WRITE_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.WriteTimeout = time.Duration(secs) * time.Second
		}
	}

	return cfg
}
