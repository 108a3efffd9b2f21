package telemetry

import (
	"bytes"
	"strconv"
)

// Frame is the canonical encoding of a Reading.
type Frame struct {
	Reading Reading
	Bytes   []byte
}

// NewFrame encodes a Reading into a Frame.
func NewFrame(r Reading) *Frame {
	return &Frame{Reading: r, Bytes: r.AppendFrame(make([]byte, 0, MaxRecordSize))}
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return string(f.Bytes)
}

// AppendFrame appends the canonical frame to b. The buffer grows as
// needed so large AMB/TEMP magnitudes are never truncated.
func (r Reading) AppendFrame(b []byte) []byte {
	b = appendInt(b, KeySoil1, r.Soil1)
	b = append(b, FieldSeparator...)
	b = appendInt(b, KeySoil2, r.Soil2)
	b = append(b, FieldSeparator...)
	rain := 0
	if r.Rain {
		rain = 1
	}
	b = appendInt(b, KeyRain, rain)
	b = append(b, FieldSeparator...)
	b = appendInt(b, KeyTank, r.Tank)
	b = append(b, FieldSeparator...)
	b = appendFloat(b, KeyAmb, r.Amb)
	b = append(b, FieldSeparator...)
	return appendFloat(b, KeyTemp, r.Temp)
}

func appendInt(b []byte, k Key, v int) []byte {
	b = append(b, k...)
	b = append(b, '=')
	return strconv.AppendInt(b, int64(v), 10)
}

func appendFloat(b []byte, k Key, v float64) []byte {
	b = append(b, k...)
	b = append(b, '=')
	return strconv.AppendFloat(b, v, 'f', 1, 64)
}

// ParseFrame parses a canonical frame back into a Reading. Anything but
// the exact output of AppendFrame is rejected with ErrMalformedFrame.
func ParseFrame(b []byte) (Reading, error) {
	d := Decode(RawRecord(b))
	if d.Discarded > 0 || len(d.Tokens) != len(FrameOrder) {
		return Reading{}, ErrMalformedFrame
	}
	for n, key := range FrameOrder {
		if d.Tokens[n].Key != key {
			return Reading{}, ErrMalformedFrame
		}
	}
	r := Reading{
		Soil1: int(d.Tokens[0].Value),
		Soil2: int(d.Tokens[1].Value),
		Rain:  d.Tokens[2].Value != 0,
		Tank:  int(d.Tokens[3].Value),
		Amb:   d.Tokens[4].Value,
		Temp:  d.Tokens[5].Value,
	}
	if !inPercent(r.Soil1) || !inPercent(r.Soil2) || !inPercent(r.Tank) ||
		!bytes.Equal(r.AppendFrame(nil), b) {
		return Reading{}, ErrMalformedFrame
	}
	return r, nil
}

func inPercent(v int) bool {
	return v >= 0 && v <= 100
}
