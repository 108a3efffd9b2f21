package telemetry

import "math"

// Reading is the normalized form of one record. Absent keys keep the
// zero value.
type Reading struct {
	Soil1 int     `json:"soil1"` // percent, inverted probe
	Soil2 int     `json:"soil2"` // percent
	Rain  bool    `json:"rain"`
	Tank  int     `json:"tank"` // percent
	Amb   float64 `json:"amb"`
	Temp  float64 `json:"temp"`
}

// rawLimit bounds the integer part of raw values. Anything beyond it
// clamps to the same percentage, and it keeps the arithmetic in int64.
const rawLimit = 1 << 40

// Normalizer applies the per-key transfer functions.
type Normalizer struct {
	Calibration Calibration
}

// NewNormalizer creates a Normalizer with validated calibration.
func NewNormalizer(c Calibration) (*Normalizer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Normalizer{Calibration: c}, nil
}

// Normalize builds a Reading from decoded fields.
func (n *Normalizer) Normalize(fields map[Key]float64) (r Reading) {
	if v, ok := fields[KeySoil1]; ok {
		r.Soil1 = n.Soil1(v)
	}
	if v, ok := fields[KeySoil2]; ok {
		r.Soil2 = n.Soil2(v)
	}
	if v, ok := fields[KeyTank]; ok {
		r.Tank = n.Tank(v)
	}
	if v, ok := fields[KeyRain]; ok {
		r.Rain = n.Rain(v)
	}
	r.Amb = fields[KeyAmb]
	r.Temp = fields[KeyTemp]
	return
}

// NormalizeRecord decodes and normalizes a record in one go.
func (n *Normalizer) NormalizeRecord(rec RawRecord) (Reading, Decoded) {
	d := Decode(rec)
	return n.Normalize(d.Fields()), d
}

// Soil1 converts the inverted capacitive probe reading into percent.
func (n *Normalizer) Soil1(raw float64) int {
	adc := n.Calibration.ADCMax
	return percent((adc - rawInt(raw)) * 100 / adc)
}

// Soil2 converts the direct scale probe reading into percent.
func (n *Normalizer) Soil2(raw float64) int {
	return percent(rawInt(raw) * 100 / n.Calibration.ADCMax)
}

// Tank converts the level reading between the calibration bounds into
// percent. Readings outside the bounds rely on the clamp.
func (n *Normalizer) Tank(raw float64) int {
	empty, full := n.Calibration.TankEmpty, n.Calibration.TankFull
	return percent((empty - rawInt(raw)) * 100 / (empty - full))
}

// Rain reports whether the reading is strictly above the threshold.
func (n *Normalizer) Rain(raw float64) bool {
	return raw > n.Calibration.RainThreshold
}

func rawInt(v float64) int64 {
	v = math.Trunc(v)
	if v > rawLimit {
		return rawLimit
	}
	if v < -rawLimit {
		return -rawLimit
	}
	return int64(v)
}

func percent(v int64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
