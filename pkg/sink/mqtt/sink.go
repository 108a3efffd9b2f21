package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/uartbridge/pkg/telemetry"
)

// DefaultTimeout bounds waiting for the meta message on exit.
const DefaultTimeout = time.Second

// MaxPending bounds publishes in flight. Frames are dropped beyond it.
const MaxPending = 16

var (
	// ErrNotConnected indicates the broker connection is not up.
	ErrNotConnected = errors.New("not connected")
	// ErrBacklog indicates the frame was dropped because too many publishes are in flight.
	ErrBacklog = errors.New("publish backlog full")
)

// DeviceInfo is published retained on the meta topic.
type DeviceInfo struct {
	ID          string                `json:"id"`
	Fields      []telemetry.Key       `json:"fields"`
	Calibration telemetry.Calibration `json:"calibration"`
}

// FrameTopic is the topic of canonical frames.
func FrameTopic(deviceID string) string { return deviceID + "/frame" }

// ReadingTopic is the topic of protobuf readings.
func ReadingTopic(deviceID string) string { return deviceID + "/reading" }

// MetaTopic is the topic of device info.
func MetaTopic(deviceID string) string { return deviceID + "/meta" }

// Sink publishes frames and readings of one device.
type Sink struct {
	Queue   *Queue
	Info    DeviceInfo
	Timeout time.Duration

	metaJSON []byte
	pending  []paho.Token
}

// NewSink creates a Sink. The connection is made by Run.
func NewSink(brokerURL string, info DeviceInfo) (*Sink, error) {
	meta, err := json.Marshal(&info)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+MetaTopic(info.ID), nil, 1, true)
	opts.SetConnectRetry(true)
	if opts.ClientID == "" {
		opts.SetClientID("uartbridge:" + info.ID)
	}
	s := &Sink{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		Timeout:  DefaultTimeout,
		metaJSON: meta,
	}
	s.Queue.OnConnect = func(q *Queue) {
		q.PubWith(MetaTopic(info.ID), s.metaJSON, 1, true)
	}
	return s, nil
}

// Name implements sink.Sink.
func (s *Sink) Name() string {
	return "mqtt"
}

// Send implements sink.Sink. It never waits for the broker: publish
// failures are reported by a later Send once their tokens complete.
func (s *Sink) Send(ctx context.Context, frame *telemetry.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.Queue.Client.IsConnectionOpen() {
		return ErrNotConnected
	}
	err := s.settle()
	if len(s.pending)+2 > MaxPending {
		return ErrBacklog
	}
	reading, merr := telemetry.MarshalReading(frame.Reading, time.Now())
	if merr != nil {
		return merr
	}
	s.pending = append(s.pending,
		s.Queue.Pub(FrameTopic(s.Info.ID), frame.Bytes),
		s.Queue.Pub(ReadingTopic(s.Info.ID), reading),
	)
	return err
}

// Run implements Runnable.
func (s *Sink) Run(ctx context.Context) error {
	glog.Infof("mqtt publishing as %q", s.Info.ID)
	s.Queue.Connect()
	<-ctx.Done()
	if s.Queue.Client.IsConnectionOpen() {
		s.Queue.PubWith(MetaTopic(s.Info.ID), nil, 1, true).WaitTimeout(s.Timeout)
	}
	s.Queue.Close()
	return ctx.Err()
}

// settle drops completed publishes and returns the first failure among them.
func (s *Sink) settle() error {
	var err error
	pending := s.pending[:0]
	for _, token := range s.pending {
		select {
		case <-token.Done():
			if terr := token.Error(); terr != nil && err == nil {
				err = terr
			}
		default:
			pending = append(pending, token)
		}
	}
	for n := len(pending); n < len(s.pending); n++ {
		s.pending[n] = nil
	}
	s.pending = pending
	return err
}
