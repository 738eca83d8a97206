package agent

import "errors"

var (
	// ErrInvalidConfig is returned when controller options fail validation
	ErrInvalidConfig = errors.New("invalid agent configuration")

	// ErrAlreadyStarted is returned when starting a controller that holds a live process
	ErrAlreadyStarted = errors.New("agent is already running")

	// ErrNotStarted is returned when stopping a controller with no process to collect
	ErrNotStarted = errors.New("agent not started or already stopped")

	// ErrUnsupportedIsolation is returned by Stop for an unknown isolation mode
	ErrUnsupportedIsolation = errors.New("unsupported isolation mode")
)
