package sink

import (
	"context"
	"io"

	"github.com/robotalks/uartbridge/pkg/telemetry"
)

// Echo writes frames to a local stream, with no trailing newline.
type Echo struct {
	Writer io.Writer
	name   string
}

// NewEcho creates an Echo sink named after the stream.
func NewEcho(name string, w io.Writer) *Echo {
	return &Echo{Writer: w, name: name}
}

// Name implements Sink.
func (e *Echo) Name() string {
	return "echo:" + e.name
}

// Send implements Sink.
func (e *Echo) Send(ctx context.Context, frame *telemetry.Frame) error {
	n, err := e.Writer.Write(frame.Bytes)
	if err == nil && n < len(frame.Bytes) {
		err = io.ErrShortWrite
	}
	return err
}
