package uart

import "errors"

var (
	// ErrNoDevice indicates no serial device is configured.
	ErrNoDevice = errors.New("no serial device")
)
