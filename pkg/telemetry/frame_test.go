package telemetry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeRecord(t *testing.T, rec string) string {
	r, _ := newTestNormalizer(t).NormalizeRecord(RawRecord(rec))
	return NewFrame(r).String()
}

func TestFrame(t *testing.T) {
	testCases := []struct {
		name   string
		rec    string
		expect string
	}{
		{
			"full record",
			"SOIL1=4095;SOIL2=0;TANK=13;RAIN=100;AMB=25.5;TEMP=18.3",
			"SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=25.5;TEMP=18.3",
		},
		{
			"wet and raining",
			"SOIL1=0;SOIL2=4095;TANK=4;RAIN=1501;AMB=-2;TEMP=30.26",
			"SOIL1=100;SOIL2=100;RAIN=1;TANK=100;AMB=-2.0;TEMP=30.3",
		},
		{"empty", "", "SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=0.0;TEMP=0.0"},
		{"garbage", "garbage;;;", "SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=0.0;TEMP=0.0"},
		{
			"missing AMB and TEMP",
			"SOIL1=4095;SOIL2=4095;TANK=20;RAIN=2000",
			"SOIL1=0;SOIL2=100;RAIN=1;TANK=0;AMB=0.0;TEMP=0.0",
		},
		{
			"field order independent",
			"TEMP=18.3;AMB=25.5;RAIN=100;TANK=13;SOIL2=0;SOIL1=4095",
			"SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=25.5;TEMP=18.3",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, encodeRecord(t, tc.rec))
		})
	}
}

func TestFrameIdempotent(t *testing.T) {
	rec := "SOIL1=1000;SOIL2=3000;TANK=9;RAIN=1700;AMB=22.4;TEMP=19.9"
	require.Equal(t, encodeRecord(t, rec), encodeRecord(t, rec))
}

func TestFrameNoCarryOver(t *testing.T) {
	n := newTestNormalizer(t)
	first, _ := n.NormalizeRecord(RawRecord("SOIL1=0;AMB=30"))
	require.Equal(t, "SOIL1=100;SOIL2=0;RAIN=0;TANK=0;AMB=30.0;TEMP=0.0", NewFrame(first).String())
	second, _ := n.NormalizeRecord(RawRecord("TEMP=5"))
	require.Equal(t, "SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=0.0;TEMP=5.0", NewFrame(second).String())
}

func TestFrameLargeMagnitude(t *testing.T) {
	f := NewFrame(Reading{Amb: 1e300, Temp: -1e300})
	s := f.String()
	require.True(t, len(f.Bytes) > MaxRecordSize)
	require.True(t, strings.HasPrefix(s, "SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=1"))
	require.True(t, strings.HasSuffix(s, ".0"))
	d := DecodeString(s)
	require.Zero(t, d.Discarded)
	require.Equal(t, 1e300, d.Fields()[KeyAmb])
	require.Equal(t, -1e300, d.Fields()[KeyTemp])
}

func TestFrameOrder(t *testing.T) {
	fields := strings.Split(NewFrame(Reading{}).String(), FieldSeparator)
	require.Len(t, fields, len(FrameOrder))
	for i, key := range FrameOrder {
		require.True(t, strings.HasPrefix(fields[i], string(key)+"="), "field %d: %s", i, fields[i])
	}
}

func TestParseFrame(t *testing.T) {
	r, err := ParseFrame([]byte("SOIL1=50;SOIL2=7;RAIN=1;TANK=100;AMB=-2.5;TEMP=18.3"))
	require.NoError(t, err)
	require.Equal(t, Reading{Soil1: 50, Soil2: 7, Rain: true, Tank: 100, Amb: -2.5, Temp: 18.3}, r)

	malformed := []string{
		"",
		"SOIL1=4095;SOIL2=0;TANK=13;RAIN=100;AMB=25.5;TEMP=18.3",
		"SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=25.5",
		"SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=25.5;TEMP=18.3;X=1",
		"SOIL1=101;SOIL2=0;RAIN=0;TANK=0;AMB=0.0;TEMP=0.0",
		"SOIL1=0;SOIL2=0;RAIN=2;TANK=0;AMB=0.0;TEMP=0.0",
		"SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=0.00;TEMP=0.0",
		"SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=0.0;TEMP=0.0\n",
	}
	for _, frame := range malformed {
		_, err := ParseFrame([]byte(frame))
		require.Equal(t, ErrMalformedFrame, err, frame)
	}
}

func TestParseFrameRoundTrip(t *testing.T) {
	f := NewFrame(Reading{Soil1: 1, Soil2: 99, Tank: 42, Amb: 21.4, Temp: -0.5})
	r, err := ParseFrame(f.Bytes)
	require.NoError(t, err)
	require.Equal(t, f.Reading, r)
}
