package tui

import "errors"

// ErrMissingSyncService is returned when the sync service is not provided.
var ErrMissingSyncService = errors.New("tui: sync service is required")

// ErrMissingStateService is returned when the state service is not provided.
var ErrMissingStateService = errors.New("tui: state service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
