package bridge

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/uartbridge/pkg/env"
	"github.com/robotalks/uartbridge/pkg/metrics"
	"github.com/robotalks/uartbridge/pkg/sink"
	"github.com/robotalks/uartbridge/pkg/sink/mqtt"
	"github.com/robotalks/uartbridge/pkg/telemetry"
)

// DefaultTarget is the monitoring host of the reference deployment.
const DefaultTarget = "192.168.0.33:5006"

// Echo targets.
const (
	EchoSerial = "serial"
	EchoStdout = "stdout"
	EchoNone   = "none"
)

// Config defines the sinks and calibration of a Bridge.
type Config struct {
	// Target is the host:port receiving frames as UDP datagrams.
	Target string
	// Echo selects where frames are echoed locally.
	Echo string
	// MQTTBrokerURL enables the MQTT sink when not empty.
	MQTTBrokerURL string
	// WebSocketURL enables the WebSocket sink when not empty.
	WebSocketURL string
	// MetricsAddr enables the Prometheus endpoint when not empty.
	MetricsAddr string
	DeviceID    string
	Calibration telemetry.Calibration
}

var defaultConfig = Config{
	Target:      DefaultTarget,
	Echo:        EchoSerial,
	Calibration: telemetry.DefaultCalibration(),
}

func init() {
	if val := os.Getenv("BRIDGE_TARGET"); val != "" {
		defaultConfig.Target = val
	}
	if val := os.Getenv("BRIDGE_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("BRIDGE_WS_URL"); val != "" {
		defaultConfig.WebSocketURL = val
	}
	if val := os.Getenv("BRIDGE_METRICS_ADDR"); val != "" {
		defaultConfig.MetricsAddr = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Target, "target", defaultConfig.Target, "Monitoring host:port receiving UDP frames.")
	flag.StringVar(&defaultConfig.Echo, "echo", defaultConfig.Echo, "Local echo of frames: serial, stdout or none.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, e.g. mqtt://host:1883/prefix/.")
	flag.StringVar(&defaultConfig.WebSocketURL, "ws", defaultConfig.WebSocketURL, "WebSocket URL of a dashboard receiving frames.")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics", defaultConfig.MetricsAddr, "Listen address of the Prometheus endpoint.")
	SetupCalibrationFlags()
}

// SetupCalibrationFlags sets command line flags of the calibration only.
func SetupCalibrationFlags() {
	c := &defaultConfig.Calibration
	flag.Int64Var(&c.ADCMax, "adc-max", c.ADCMax, "Full scale count of the soil probes.")
	flag.Int64Var(&c.TankEmpty, "tank-empty", c.TankEmpty, "Raw tank reading at 0%.")
	flag.Int64Var(&c.TankFull, "tank-full", c.TankFull, "Raw tank reading at 100%.")
	flag.Float64Var(&c.RainThreshold, "rain-threshold", c.RainThreshold, "Raw rain reading above which rain is reported.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

func (c *Config) deviceID() string {
	if c.DeviceID != "" {
		return c.DeviceID
	}
	return env.DeviceID()
}

// NewSinks creates the fanout. serialEcho receives the echo when Echo is
// "serial"; it may be nil to skip it. Failing to create the UDP sink is fatal.
func (c *Config) NewSinks(serialEcho io.Writer) (*sink.Fanout, error) {
	fanout := sink.NewFanout()
	switch c.Echo {
	case EchoSerial:
		if serialEcho != nil {
			fanout.Add(sink.NewEcho(EchoSerial, serialEcho))
		}
	case EchoStdout:
		fanout.Add(sink.NewEcho(EchoStdout, os.Stdout))
	case EchoNone, "":
	default:
		return nil, fmt.Errorf("invalid echo %q", c.Echo)
	}

	udp, err := sink.DialUDP(c.Target)
	if err != nil {
		return nil, err
	}
	fanout.Add(udp)
	glog.Infof("sending frames to udp://%s", udp.RemoteAddr())

	if c.WebSocketURL != "" {
		ws, err := sink.NewWebSocket(c.WebSocketURL)
		if err != nil {
			fanout.Close()
			return nil, fmt.Errorf("websocket %s: %v", c.WebSocketURL, err)
		}
		fanout.Add(ws)
	}
	if c.MQTTBrokerURL != "" {
		info := mqtt.DeviceInfo{ID: c.deviceID(), Fields: telemetry.FrameOrder, Calibration: c.Calibration}
		s, err := mqtt.NewSink(c.MQTTBrokerURL, info)
		if err != nil {
			fanout.Close()
			return nil, fmt.Errorf("mqtt %s: %v", c.MQTTBrokerURL, err)
		}
		fanout.Add(s)
	}
	return fanout, nil
}

// NewBridge creates a Bridge reading from reader.
func (c *Config) NewBridge(reader RecordReader, serialEcho io.Writer) (*Bridge, error) {
	normalizer, err := telemetry.NewNormalizer(c.Calibration)
	if err != nil {
		return nil, err
	}
	fanout, err := c.NewSinks(serialEcho)
	if err != nil {
		return nil, err
	}
	b := New(reader, normalizer, fanout).AddObserver(NewLogObserver())
	if c.MetricsAddr != "" {
		m := metrics.New()
		b.AddObserver(m).AddRunnable(&metrics.Server{Addr: c.MetricsAddr, Metrics: m})
	}
	return b, nil
}
