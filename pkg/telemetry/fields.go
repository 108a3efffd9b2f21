package telemetry

// Key is a field identifier in the sensor protocol.
type Key string

// Recognized keys.
const (
	KeySoil1 Key = "SOIL1"
	KeySoil2 Key = "SOIL2"
	KeyTank  Key = "TANK"
	KeyRain  Key = "RAIN"
	KeyAmb   Key = "AMB"
	KeyTemp  Key = "TEMP"
)

// MaxKeyLen is the longest key the decoder accepts.
const MaxKeyLen = 15

// FrameOrder is the field order of the canonical frame.
var FrameOrder = []Key{KeySoil1, KeySoil2, KeyRain, KeyTank, KeyAmb, KeyTemp}

// IsRecognized reports whether the key is normalized into a Reading.
func (k Key) IsRecognized() bool {
	switch k {
	case KeySoil1, KeySoil2, KeyTank, KeyRain, KeyAmb, KeyTemp:
		return true
	}
	return false
}

// Token is a successfully parsed `KEY=NUMBER` field.
type Token struct {
	Key   Key     `json:"key"`
	Value float64 `json:"value"`
}
