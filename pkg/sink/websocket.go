package sink

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/robotalks/uartbridge/pkg/telemetry"
)

// WebSocket defaults.
const (
	DefaultWebSocketTimeout       = time.Second
	DefaultWebSocketRetryInterval = 5 * time.Second
	WebSocketQueueSize            = 16
)

var (
	// ErrNotConnected indicates the frame was dropped while the dashboard is unreachable.
	ErrNotConnected = errors.New("not connected")
	// ErrQueueFull indicates the frame was dropped because the writer fell behind.
	ErrQueueFull = errors.New("queue full")
)

// WebSocket pushes frames as text messages to a dashboard. Dialing and
// writing happen on a background writer so Send never blocks the caller;
// a failure is reported by the next Send.
type WebSocket struct {
	Timeout       time.Duration
	RetryInterval time.Duration

	config *websocket.Config
	frames chan string
	stopCh chan struct{}
	doneCh chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	errLock   sync.Mutex
	err       error
}

// NewWebSocket creates a WebSocket sink for a ws:// or wss:// URL.
func NewWebSocket(url string) (*WebSocket, error) {
	config, err := websocket.NewConfig(url, "http://localhost/")
	if err != nil {
		return nil, err
	}
	return &WebSocket{
		Timeout:       DefaultWebSocketTimeout,
		RetryInterval: DefaultWebSocketRetryInterval,
		config:        config,
		frames:        make(chan string, WebSocketQueueSize),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}, nil
}

// Name implements Sink.
func (s *WebSocket) Name() string {
	return "websocket"
}

// Send implements Sink.
func (s *WebSocket) Send(ctx context.Context, frame *telemetry.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.startOnce.Do(func() { go s.run() })
	select {
	case s.frames <- frame.String():
		return s.takeErr()
	default:
		return ErrQueueFull
	}
}

// Close stops the writer and closes the connection.
func (s *WebSocket) Close() error {
	started := true
	s.startOnce.Do(func() { started = false })
	s.stopOnce.Do(func() { close(s.stopCh) })
	if started {
		<-s.doneCh
	}
	return nil
}

func (s *WebSocket) setErr(err error) {
	s.errLock.Lock()
	s.err = err
	s.errLock.Unlock()
}

func (s *WebSocket) takeErr() error {
	s.errLock.Lock()
	defer s.errLock.Unlock()
	err := s.err
	s.err = nil
	return err
}

func (s *WebSocket) run() {
	defer close(s.doneCh)
	var conn *websocket.Conn
	var lastDial time.Time
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()
	for {
		var msg string
		select {
		case <-s.stopCh:
			return
		case msg = <-s.frames:
		}
		if conn == nil {
			if !lastDial.IsZero() && time.Since(lastDial) < s.RetryInterval {
				s.setErr(ErrNotConnected)
				continue
			}
			lastDial = time.Now()
			c, err := s.dial()
			if err != nil {
				s.setErr(err)
				continue
			}
			conn = c
		}
		conn.SetWriteDeadline(time.Now().Add(s.Timeout))
		if err := websocket.Message.Send(conn, msg); err != nil {
			s.setErr(err)
			conn.Close()
			conn = nil
		}
	}
}

func (s *WebSocket) dial() (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()
	return s.config.DialContext(ctx)
}
