package launcher

import (
	"errors"

	"github.com/chess10kp/skoll/internal/windows"
)

var (
	// ErrSourceUnavailable is returned when windows or desktop files
	// cannot be read. Callers fall back to an empty set.
	ErrSourceUnavailable = windows.ErrSourceUnavailable
	// ErrParse is returned for malformed command text.
	ErrParse = errors.New("malformed command")
	// ErrNoTerminalAvailable is returned when a terminal app has no
	// terminal to run in.
	ErrNoTerminalAvailable = errors.New("no terminal available")
	// ErrSpawnFailed is returned when the process could not be started.
	ErrSpawnFailed = errors.New("failed to spawn process")
	// ErrPersistenceFailed is returned when the launch succeeded but the
	// history could not be saved.
	ErrPersistenceFailed = errors.New("failed to save history")
)
