package tools

import "errors"

// ErrToolNotFound is returned when no tool is registered under a name
var ErrToolNotFound = errors.New("unknown tool")
