package telemetry

import (
	"errors"
	"fmt"
)

// ErrMalformedFrame indicates bytes which are not a canonical frame.
var ErrMalformedFrame = errors.New("malformed frame")

// CalibrationError reports an unusable calibration parameter.
type CalibrationError struct {
	Param  string
	Reason string
}

// Error implements error.
func (e *CalibrationError) Error() string {
	return fmt.Sprintf("invalid calibration %s: %s", e.Param, e.Reason)
}
