package server

import "errors"

var (
	// ErrMissingAddress is returned when the server address is not provided.
	ErrMissingAddress = errors.New("server address is required")

	// ErrServerAlreadyRunning is returned when Start is called twice.
	ErrServerAlreadyRunning = errors.New("server is already running")

	// ErrEmptyCertPath is returned when a TLS file path is empty.
	ErrEmptyCertPath = errors.New("certificate or key file path cannot be empty")
)
