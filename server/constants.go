package server

import "time"

// Defaults applied by New when no option or Config value overrides them.
// The read/write timeouts bound a single request-response exchange; the idle
// timeout governs keep-alive connections between requests.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultMaxHeaderBytes caps request header size at 1 MiB.
	DefaultMaxHeaderBytes = 1 << 20
)
