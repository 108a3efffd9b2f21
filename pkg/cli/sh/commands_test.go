package sh

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/uartbridge/pkg/sink"
	"github.com/robotalks/uartbridge/pkg/telemetry"
)

func TestDecodeResult(t *testing.T) {
	n, err := telemetry.NewNormalizer(telemetry.DefaultCalibration())
	require.NoError(t, err)
	r := NewDecodeResult(n, recordFromArgs([]string{"SOIL1=4095;HUM=3;bad;", "TEMP=18.26"}))
	assert.Equal(t, "SOIL1=4095;HUM=3;bad; TEMP=18.26", r.Record)
	assert.Equal(t, 1, r.Discarded)
	assert.Equal(t, 1, r.Unknown)
	assert.Equal(t, "SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=0.0;TEMP=18.3", r.Frame)
	assert.Equal(t, "tokens: SOIL1=4095 HUM=3 TEMP=18.26 (discarded 1, unknown 1)\nframe:  "+r.Frame, r.String())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"reading":{"soil1":0,"soil2":0,"rain":false,"tank":0,"amb":0,"temp":18.26}`)
}

func TestSendResult(t *testing.T) {
	frame := telemetry.NewFrame(telemetry.Reading{})
	r := NewSendResult(frame, []sink.Result{{Sink: "udp"}, {Sink: "mqtt", Err: errors.New("not connected")}})
	assert.Equal(t, "SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=0.0;TEMP=0.0\nudp: OK\nmqtt: not connected", r.String())
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), `{"sink":"udp"}`)
}

func TestSetCalibration(t *testing.T) {
	c := telemetry.DefaultCalibration()
	require.NoError(t, SetCalibration(&c, "tank-empty", "20"))
	require.NoError(t, SetCalibration(&c, "rain-threshold", "900.5"))
	assert.Equal(t, int64(20), c.TankEmpty)
	assert.Equal(t, 900.5, c.RainThreshold)
	assert.Equal(t, "adc-max=4095 tank-empty=20 tank-full=4 rain-threshold=900.5", (&CalibResult{c}).String())

	assert.Error(t, SetCalibration(&c, "tank-full", "20"))
	assert.Error(t, SetCalibration(&c, "adc-max", "x"))
	assert.Error(t, SetCalibration(&c, "gain", "1"))
	assert.Equal(t, int64(4), c.TankFull)
}
