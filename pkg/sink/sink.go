package sink

import (
	"context"
	"fmt"
	"io"

	fx "github.com/robotalks/uartbridge/pkg/framework"
	"github.com/robotalks/uartbridge/pkg/telemetry"
)

// Sink delivers a frame to one consumer.
type Sink interface {
	fx.Named
	Send(context.Context, *telemetry.Frame) error
}

// Error wraps a delivery failure with the sink name.
type Error struct {
	Sink string
	Err  error
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Sink, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the outcome of delivering a frame to one sink.
type Result struct {
	Sink string
	Err  error
}

// Fanout delivers frames to multiple sinks in order.
type Fanout struct {
	Sinks []Sink
}

// NewFanout creates a Fanout. nil sinks are skipped.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	f.Add(sinks...)
	return f
}

// Add adds more sinks.
func (f *Fanout) Add(sinks ...Sink) {
	for _, s := range sinks {
		if s != nil {
			f.Sinks = append(f.Sinks, s)
		}
	}
}

// Deliver sends the frame to every sink regardless of earlier failures.
func (f *Fanout) Deliver(ctx context.Context, frame *telemetry.Frame) []Result {
	results := make([]Result, len(f.Sinks))
	for n, s := range f.Sinks {
		results[n] = Result{Sink: s.Name(), Err: s.Send(ctx, frame)}
	}
	return results
}

// Name implements Sink.
func (f *Fanout) Name() string {
	return "fanout"
}

// Send implements Sink.
func (f *Fanout) Send(ctx context.Context, frame *telemetry.Frame) error {
	var errs fx.AggregatedError
	for _, r := range f.Deliver(ctx, frame) {
		if r.Err != nil {
			errs.Add(&Error{Sink: r.Sink, Err: r.Err})
		}
	}
	return errs.Aggregate()
}

// Close closes all sinks implementing io.Closer.
func (f *Fanout) Close() error {
	var errs fx.AggregatedError
	for _, s := range f.Sinks {
		if closer, ok := s.(io.Closer); ok {
			errs.Add(closer.Close())
		}
	}
	return errs.Aggregate()
}
