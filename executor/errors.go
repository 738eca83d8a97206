package executor

import "errors"

var (
	// ErrSpawn is returned when the shell process could not be started
	ErrSpawn = errors.New("failed to spawn process")

	// ErrNoProcess is returned when signalling a handle whose process never started
	ErrNoProcess = errors.New("no process")
)
