package uart

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.bug.st/serial"
)

// Config defines the serial line to the sensor peer.
type Config struct {
	// Device is the serial device path, e.g. /dev/ttyUSB0.
	Device   string
	BaudRate int
	// ReadTimeout bounds the wait for the first byte of a record.
	ReadTimeout time.Duration
}

// DefaultBaudRate matches the sensor peer firmware.
const DefaultBaudRate = 9600

var defaultConfig = Config{
	BaudRate:    DefaultBaudRate,
	ReadTimeout: DefaultTimeout,
}

func init() {
	if val := os.Getenv("BRIDGE_SERIAL"); val != "" {
		defaultConfig.Device = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "serial", defaultConfig.Device, "Serial device of the sensor peer.")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate.")
	flag.DurationVar(&defaultConfig.ReadTimeout, "read-timeout", defaultConfig.ReadTimeout, "Wait for a record before idling a cycle.")
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

// Open opens the serial port with 8N1 framing.
func (c *Config) Open() (serial.Port, error) {
	if c.Device == "" {
		return nil, ErrNoDevice
	}
	port, err := serial.Open(c.Device, &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", c.Device, err)
	}
	return port, nil
}

// NewFrameReader creates a FrameReader over the port using the configured timeout.
func (c *Config) NewFrameReader(port serial.Port) *FrameReader {
	r := NewFrameReader(port)
	r.Timeout = c.ReadTimeout
	return r
}

// Ports lists the serial devices present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
