package sh

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/uartbridge/pkg/bridge"
	"github.com/robotalks/uartbridge/pkg/l0/uart"
	"github.com/robotalks/uartbridge/pkg/sink"
	"github.com/robotalks/uartbridge/pkg/telemetry"
)

// DecodeResult describes a record run through the pipeline.
type DecodeResult struct {
	Record    string            `json:"record"`
	Tokens    []telemetry.Token `json:"tokens"`
	Discarded int               `json:"discarded"`
	Unknown   int               `json:"unknown"`
	Reading   telemetry.Reading `json:"reading"`
	Frame     string            `json:"frame"`
}

// NewDecodeResult decodes, normalizes and encodes a record.
func NewDecodeResult(n *telemetry.Normalizer, rec telemetry.RawRecord) *DecodeResult {
	reading, decoded := n.NormalizeRecord(rec)
	return &DecodeResult{
		Record:    rec.String(),
		Tokens:    decoded.Tokens,
		Discarded: decoded.Discarded,
		Unknown:   decoded.Unknown(),
		Reading:   reading,
		Frame:     telemetry.NewFrame(reading).String(),
	}
}

func (r *DecodeResult) String() string {
	tokens := make([]string, len(r.Tokens))
	for n, tok := range r.Tokens {
		tokens[n] = string(tok.Key) + "=" + strconv.FormatFloat(tok.Value, 'g', -1, 64)
	}
	return fmt.Sprintf("tokens: %s (discarded %d, unknown %d)\nframe:  %s",
		strings.Join(tokens, " "), r.Discarded, r.Unknown, r.Frame)
}

// SinkStatus is the outcome of one sink.
type SinkStatus struct {
	Sink  string `json:"sink"`
	Error string `json:"error,omitempty"`
}

// SendResult lists delivery outcomes of a frame.
type SendResult struct {
	Frame string       `json:"frame"`
	Sinks []SinkStatus `json:"sinks"`
}

// NewSendResult converts fanout results.
func NewSendResult(frame *telemetry.Frame, results []sink.Result) *SendResult {
	r := &SendResult{Frame: frame.String(), Sinks: make([]SinkStatus, len(results))}
	for n, res := range results {
		r.Sinks[n].Sink = res.Sink
		if res.Err != nil {
			r.Sinks[n].Error = res.Err.Error()
		}
	}
	return r
}

func (r *SendResult) String() string {
	lines := []string{r.Frame}
	for _, s := range r.Sinks {
		status := "OK"
		if s.Error != "" {
			status = s.Error
		}
		lines = append(lines, s.Sink+": "+status)
	}
	return strings.Join(lines, "\n")
}

// CalibResult displays a calibration.
type CalibResult struct {
	telemetry.Calibration
}

func (r *CalibResult) String() string {
	return fmt.Sprintf("adc-max=%d tank-empty=%d tank-full=%d rain-threshold=%g",
		r.ADCMax, r.TankEmpty, r.TankFull, r.RainThreshold)
}

// SetCalibration sets one parameter by its flag name. The change is
// rejected when the result doesn't validate.
func SetCalibration(c *telemetry.Calibration, param, value string) error {
	updated := *c
	var err error
	switch param {
	case "adc-max":
		updated.ADCMax, err = strconv.ParseInt(value, 10, 64)
	case "tank-empty":
		updated.TankEmpty, err = strconv.ParseInt(value, 10, 64)
	case "tank-full":
		updated.TankFull, err = strconv.ParseInt(value, 10, 64)
	case "rain-threshold":
		updated.RainThreshold, err = strconv.ParseFloat(value, 64)
	default:
		return fmt.Errorf("unknown parameter %q", param)
	}
	if err != nil {
		return fmt.Errorf("%s: %v", param, err)
	}
	if err = updated.Validate(); err != nil {
		return err
	}
	*c = updated
	return nil
}

func recordFromArgs(args []string) telemetry.RawRecord {
	return telemetry.NewRawRecord([]byte(strings.Join(args, " ")))
}

var (
	// DecodeCmd runs a record through the pipeline without sending.
	DecodeCmd = ishell.Cmd{
		Name:    "decode",
		Aliases: []string{"d"},
		Help:    "RECORD",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			n, err := s.Normalizer()
			if err != nil {
				c.Err(err)
				return
			}
			s.Print(c, NewDecodeResult(n, recordFromArgs(c.Args)))
		},
	}

	// SendCmd delivers the frame of a record to the configured sinks.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "RECORD",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			n, err := s.Normalizer()
			if err != nil {
				c.Err(err)
				return
			}
			fanout, err := s.Sinks()
			if err != nil {
				c.Err(err)
				return
			}
			reading, _ := n.NormalizeRecord(recordFromArgs(c.Args))
			frame := telemetry.NewFrame(reading)
			s.Print(c, NewSendResult(frame, fanout.Deliver(context.Background(), frame)))
		},
	}

	// CalibCmd shows or updates the calibration.
	CalibCmd = ishell.Cmd{
		Name: "calib",
		Help: "[PARAM VALUE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			switch len(c.Args) {
			case 0:
			case 2:
				if err := SetCalibration(&s.Config.Calibration, c.Args[0], c.Args[1]); err != nil {
					c.Err(err)
					return
				}
			default:
				c.Err(fmt.Errorf("expect PARAM VALUE"))
				return
			}
			s.Print(c, &CalibResult{Calibration: s.Config.Calibration})
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ports, err := uart.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// WatchCmd prints records received on the serial port.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[COUNT [DURATION]]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			count, duration := 10, 30*time.Second
			var err error
			if len(c.Args) > 0 {
				if count, err = strconv.Atoi(c.Args[0]); err != nil {
					c.Err(err)
					return
				}
			}
			if len(c.Args) > 1 {
				if duration, err = time.ParseDuration(c.Args[1]); err != nil {
					c.Err(err)
					return
				}
			}
			if err := s.Watch(c, count, duration); err != nil {
				c.Err(err)
			}
		},
	}
)

// Watch steps a bridge with no sinks over the serial port and prints
// each cycle, until count records or the duration elapsed.
func (s *Shell) Watch(c *ishell.Context, count int, duration time.Duration) error {
	n, err := s.Normalizer()
	if err != nil {
		return err
	}
	port, err := s.Serial.Open()
	if err != nil {
		return err
	}
	defer port.Close()
	reader := s.Serial.NewFrameReader(port)
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()
	b := bridge.New(reader, n, sink.NewFanout())
	for received := 0; received < count; {
		cycle, err := b.Step(ctx)
		if err != nil {
			return nil
		}
		if cycle != nil {
			received++
			s.Print(c, NewDecodeResult(n, cycle.Record))
		}
	}
	return nil
}
