package nav350

import "github.com/pkg/errors"

var (
	// ErrNotInitialized is returned by device operations before Initialize or after Uninitialize.
	ErrNotInitialized = errors.New("nav350 is not initialized")
	// ErrAlreadyInitialized is returned by Initialize on a connected device.
	ErrAlreadyInitialized = errors.New("nav350 is already initialized")
)
