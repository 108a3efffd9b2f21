package bridge

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/uartbridge/pkg/framework"
	"github.com/robotalks/uartbridge/pkg/sink"
	"github.com/robotalks/uartbridge/pkg/telemetry"
)

type readResult struct {
	rec string
	err error
}

// scriptReader replays results, then blocks until canceled.
type scriptReader struct {
	results []readResult
}

func (r *scriptReader) Next(ctx context.Context) (telemetry.RawRecord, error) {
	if len(r.results) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	res := r.results[0]
	r.results = r.results[1:]
	if res.rec == "" {
		return nil, res.err
	}
	return telemetry.RawRecord(res.rec), res.err
}

type captureSink struct {
	name   string
	err    error
	frames []string
}

func (s *captureSink) Name() string { return s.name }

func (s *captureSink) Send(ctx context.Context, frame *telemetry.Frame) error {
	s.frames = append(s.frames, frame.String())
	return s.err
}

type countObserver struct {
	idle, readErrors, records, delivered int
}

func (o *countObserver) Idle()                                         { o.idle++ }
func (o *countObserver) ReadError(error)                               { o.readErrors++ }
func (o *countObserver) Record(telemetry.RawRecord, telemetry.Decoded) { o.records++ }
func (o *countObserver) Delivered(*telemetry.Frame, []sink.Result)     { o.delivered++ }

type notifyObserver struct {
	countObserver
	delivered chan struct{}
}

func (o *notifyObserver) Delivered(*telemetry.Frame, []sink.Result) { o.delivered <- struct{}{} }

func newTestBridge(t *testing.T, reader RecordReader, sinks ...sink.Sink) *Bridge {
	n, err := telemetry.NewNormalizer(telemetry.DefaultCalibration())
	require.NoError(t, err)
	return New(reader, n, sink.NewFanout(sinks...))
}

func TestStep(t *testing.T) {
	reader := &scriptReader{results: []readResult{
		{},
		{err: errors.New("EIO")},
		{rec: "SOIL1=4095;SOIL2=0;TANK=13;RAIN=100;AMB=25.5;TEMP=18.3"},
		{rec: "garbage;;;"},
	}}
	echo := &captureSink{name: "echo"}
	udp := &captureSink{name: "udp", err: errors.New("network unreachable")}
	obs := &countObserver{}
	b := newTestBridge(t, reader, echo, udp).AddObserver(obs)
	ctx := context.Background()

	c, err := b.Step(ctx)
	require.NoError(t, err)
	assert.Nil(t, c)
	c, err = b.Step(ctx)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Equal(t, 1, obs.idle)
	assert.Equal(t, 1, obs.readErrors)

	c, err = b.Step(ctx)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=25.5;TEMP=18.3", c.Frame.String())
	require.Len(t, c.Results, 2)
	assert.NoError(t, c.Results[0].Err)
	assert.Error(t, c.Results[1].Err)
	assert.Equal(t, WaitingForRecord, b.State())

	c, err = b.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Decoded.Discarded)
	assert.Equal(t, "SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=0.0;TEMP=0.0", c.Frame.String())

	expected := []string{
		"SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=25.5;TEMP=18.3",
		"SOIL1=0;SOIL2=0;RAIN=0;TANK=0;AMB=0.0;TEMP=0.0",
	}
	assert.Equal(t, expected, echo.frames)
	assert.Equal(t, expected, udp.frames)
	assert.Equal(t, 2, obs.records)
	assert.Equal(t, 2, obs.delivered)
}

func TestStepCanceled(t *testing.T) {
	b := newTestBridge(t, &scriptReader{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, err := b.Step(ctx)
	assert.Nil(t, c)
	assert.Equal(t, context.Canceled, err)
}

func TestRun(t *testing.T) {
	reader := &scriptReader{results: []readResult{{rec: "SOIL2=4095"}, {rec: "RAIN=1501"}}}
	echo := &captureSink{name: "echo"}
	delivered := make(chan struct{}, 2)
	stopped := make(chan struct{})
	b := newTestBridge(t, reader, echo).AddObserver(&notifyObserver{delivered: delivered})
	b.AddRunnable(fx.RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	for i := 0; i < 2; i++ {
		select {
		case <-delivered:
		case <-time.After(5 * time.Second):
			t.Fatal("frame not delivered")
		}
	}
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bridge didn't stop")
	}
	<-stopped
	assert.Equal(t, []string{
		"SOIL1=0;SOIL2=100;RAIN=0;TANK=0;AMB=0.0;TEMP=0.0",
		"SOIL1=0;SOIL2=0;RAIN=1;TANK=0;AMB=0.0;TEMP=0.0",
	}, echo.frames)
}

// chanReader yields records fed by the test.
type chanReader struct {
	recCh chan string
}

func (r *chanReader) Next(ctx context.Context) (telemetry.RawRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case rec := <-r.recCh:
		return telemetry.RawRecord(rec), nil
	}
}

func TestRunMetricsPortBusy(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	monitor, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer monitor.Close()

	conf := NewConfig()
	conf.Target = monitor.LocalAddr().String()
	conf.Echo = EchoNone
	conf.MQTTBrokerURL = ""
	conf.WebSocketURL = ""
	conf.MetricsAddr = busy.Addr().String()
	reader := &chanReader{recCh: make(chan string)}
	b, err := conf.NewBridge(reader, nil)
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	// give the metrics server time to fail on the busy port
	time.Sleep(100 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("bridge stopped: %v", err)
	case reader.recCh <- "SOIL1=0;TANK=13":
	case <-time.After(5 * time.Second):
		t.Fatal("record not consumed")
	}

	buf := make([]byte, 512)
	monitor.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, _, err := monitor.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "SOIL1=100;SOIL2=0;RAIN=0;TANK=0;AMB=0.0;TEMP=0.0", string(buf[:n]))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bridge didn't stop")
	}
}

func TestRunBackgroundFailureIsNotFatal(t *testing.T) {
	reader := &chanReader{recCh: make(chan string)}
	echo := &captureSink{name: "echo"}
	failed := make(chan struct{})
	delivered := make(chan struct{}, 1)
	b := newTestBridge(t, reader, echo).AddObserver(&notifyObserver{delivered: delivered})
	b.AddRunnable(fx.RunFunc(func(context.Context) error {
		close(failed)
		return errors.New("listen failed")
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	<-failed
	select {
	case reader.recCh <- "RAIN=2000":
	case <-time.After(5 * time.Second):
		t.Fatal("loop stopped after background failure")
	}
	select {
	case <-delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("frame not delivered")
	}
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bridge didn't stop")
	}
	assert.Equal(t, []string{"SOIL1=0;SOIL2=0;RAIN=1;TANK=0;AMB=0.0;TEMP=0.0"}, echo.frames)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "WaitingForRecord", WaitingForRecord.String())
	assert.Equal(t, "Dispatching", Dispatching.String())
	assert.Equal(t, "Unknown", State(42).String())
}

func TestLogObserver(t *testing.T) {
	l := NewLogObserver()
	frame := telemetry.NewFrame(telemetry.Reading{})
	l.Delivered(frame, []sink.Result{{Sink: "udp", Err: errors.New("down")}})
	assert.True(t, l.Failing("udp"))
	l.Delivered(frame, []sink.Result{{Sink: "udp"}})
	assert.False(t, l.Failing("udp"))
}

func TestNewBridge(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	conf := NewConfig()
	conf.Target = conn.LocalAddr().String()
	conf.Echo = EchoNone
	conf.MQTTBrokerURL = ""
	conf.WebSocketURL = ""
	conf.MetricsAddr = "127.0.0.1:0"
	b, err := conf.NewBridge(&scriptReader{results: []readResult{{rec: "TANK=4"}}}, nil)
	require.NoError(t, err)
	defer b.Close()
	require.Len(t, b.Fanout.Sinks, 1)
	assert.Equal(t, "udp", b.Fanout.Sinks[0].Name())
	assert.Len(t, b.Observers, 2)
	assert.Len(t, b.runners, 1)

	_, err = b.Step(context.Background())
	require.NoError(t, err)
	buf := make([]byte, 512)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "SOIL1=0;SOIL2=0;RAIN=0;TANK=100;AMB=0.0;TEMP=0.0", string(buf[:n]))
}

func TestNewBridgeErrors(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"invalid echo", func(c *Config) { c.Echo = "printer" }},
		{"unresolvable target", func(c *Config) { c.Target = "no-port" }},
		{"invalid calibration", func(c *Config) { c.Calibration.TankFull = c.Calibration.TankEmpty }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			conf.Target = "127.0.0.1:5006"
			conf.MQTTBrokerURL = ""
			conf.WebSocketURL = ""
			conf.MetricsAddr = ""
			tc.modify(conf)
			_, err := conf.NewBridge(&scriptReader{}, nil)
			assert.Error(t, err)
		})
	}
}

func TestNewSinksEcho(t *testing.T) {
	conf := NewConfig()
	conf.Target = "127.0.0.1:5006"
	conf.MQTTBrokerURL = ""
	conf.WebSocketURL = ""
	conf.Echo = EchoSerial
	fanout, err := conf.NewSinks(&discard{})
	require.NoError(t, err)
	defer fanout.Close()
	require.Len(t, fanout.Sinks, 2)
	assert.Equal(t, "echo:serial", fanout.Sinks[0].Name())
	assert.Equal(t, "udp", fanout.Sinks[1].Name())
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
