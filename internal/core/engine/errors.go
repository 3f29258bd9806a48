package engine

import "errors"

var (
	// ErrNotRegistered is returned for a stale or unknown handle.
	ErrNotRegistered = errors.New("engine: handle not registered")
	// ErrInvalidConfig is returned by New for a config that fails Validate.
	ErrInvalidConfig = errors.New("engine: invalid config")
	// ErrNilSource is returned when a registration is handed a nil host.
	ErrNilSource = errors.New("engine: nil source")
)
