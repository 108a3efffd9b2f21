package telemetry

// Calibration holds the transfer function parameters of the sensor peer.
type Calibration struct {
	// ADCMax is the full scale count of the soil probes (12-bit ADC).
	ADCMax int64 `json:"adc_max"`
	// TankEmpty is the raw tank level reading at 0%.
	TankEmpty int64 `json:"tank_empty"`
	// TankFull is the raw tank level reading at 100%.
	TankFull int64 `json:"tank_full"`
	// RainThreshold is the raw rain reading above which rain is reported.
	RainThreshold float64 `json:"rain_threshold"`
}

// Calibration defaults of the reference sensor board.
const (
	DefaultADCMax        int64   = 4095
	DefaultTankEmpty     int64   = 13
	DefaultTankFull      int64   = 4
	DefaultRainThreshold float64 = 1500
)

// DefaultCalibration returns the reference calibration.
func DefaultCalibration() Calibration {
	return Calibration{
		ADCMax:        DefaultADCMax,
		TankEmpty:     DefaultTankEmpty,
		TankFull:      DefaultTankFull,
		RainThreshold: DefaultRainThreshold,
	}
}

// Validate checks the calibration can be used by a Normalizer.
func (c Calibration) Validate() error {
	if c.ADCMax <= 0 {
		return &CalibrationError{Param: "adc-max", Reason: "must be positive"}
	}
	if c.TankEmpty == c.TankFull {
		return &CalibrationError{Param: "tank", Reason: "empty and full readings must differ"}
	}
	return nil
}
