// Package bridge runs the ingestion loop: read a record from the sensor
// stream, decode, normalize, encode and fan the frame out to the sinks.
package bridge

import (
	"context"
	"sync/atomic"

	fx "github.com/robotalks/uartbridge/pkg/framework"
	"github.com/robotalks/uartbridge/pkg/sink"
	"github.com/robotalks/uartbridge/pkg/telemetry"
)

// RecordReader yields raw records. An empty record with no error means
// no data arrived within the read timeout.
type RecordReader interface {
	Next(context.Context) (telemetry.RawRecord, error)
}

// Observer receives the outcome of each cycle. Observers must not block.
type Observer interface {
	Idle()
	ReadError(error)
	Record(telemetry.RawRecord, telemetry.Decoded)
	Delivered(*telemetry.Frame, []sink.Result)
}

// Cycle is everything produced by one pass over a record.
type Cycle struct {
	Record  telemetry.RawRecord
	Decoded telemetry.Decoded
	Reading telemetry.Reading
	Frame   *telemetry.Frame
	Results []sink.Result
}

// Bridge is the ingestion loop.
type Bridge struct {
	Reader     RecordReader
	Normalizer *telemetry.Normalizer
	Fanout     *sink.Fanout
	Observers  []Observer

	runners []fx.Runnable
	state   atomic.Int32
}

// New creates a Bridge. Sinks implementing fx.Runnable run along with the loop.
func New(reader RecordReader, normalizer *telemetry.Normalizer, fanout *sink.Fanout) *Bridge {
	b := &Bridge{Reader: reader, Normalizer: normalizer, Fanout: fanout}
	for _, s := range fanout.Sinks {
		if runner, ok := s.(fx.Runnable); ok {
			b.AddRunnable(fx.NamedRun(s.Name(), runner))
		}
	}
	return b
}

// AddRunnable adds background components stopped together with the loop.
// Their failures never stop the loop.
func (b *Bridge) AddRunnable(runnables ...fx.Runnable) *Bridge {
	b.runners = append(b.runners, runnables...)
	return b
}

// AddObserver adds observers.
func (b *Bridge) AddObserver(observers ...Observer) *Bridge {
	b.Observers = append(b.Observers, observers...)
	return b
}

// State returns the current stage.
func (b *Bridge) State() State {
	return State(b.state.Load())
}

func (b *Bridge) enter(s State) {
	b.state.Store(int32(s))
}

// Name implements fx.Named.
func (b *Bridge) Name() string {
	return "bridge"
}

// Step runs one cycle. It returns a nil Cycle when no record was read,
// and an error only when ctx is done.
func (b *Bridge) Step(ctx context.Context) (*Cycle, error) {
	b.enter(WaitingForRecord)
	rec, err := b.Reader.Next(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		for _, o := range b.Observers {
			o.ReadError(err)
		}
		return nil, nil
	}
	if rec.IsEmpty() {
		for _, o := range b.Observers {
			o.Idle()
		}
		return nil, nil
	}

	c := &Cycle{Record: rec}
	b.enter(Decoding)
	c.Decoded = telemetry.Decode(rec)
	for _, o := range b.Observers {
		o.Record(rec, c.Decoded)
	}
	b.enter(Normalizing)
	c.Reading = b.Normalizer.Normalize(c.Decoded.Fields())
	b.enter(Encoding)
	c.Frame = telemetry.NewFrame(c.Reading)
	b.enter(Dispatching)
	c.Results = b.Fanout.Deliver(ctx, c.Frame)
	for _, o := range b.Observers {
		o.Delivered(c.Frame, c.Results)
	}
	b.enter(WaitingForRecord)
	return c, nil
}

// Run implements fx.Runnable. The loop and background components stop
// when ctx is done. A failing background component is logged and dropped,
// the loop keeps running.
func (b *Bridge) Run(ctx context.Context) error {
	runner := fx.NewRunnerWith(ctx)
	for _, r := range b.runners {
		runner.Go(fx.Optional(r))
	}
	runner.Go(fx.NamedRun("ingestion", fx.RunFunc(b.loop)))
	return runner.Wait()
}

func (b *Bridge) loop(ctx context.Context) error {
	for {
		if _, err := b.Step(ctx); err != nil {
			return err
		}
	}
}

// Close releases the sinks.
func (b *Bridge) Close() error {
	return b.Fanout.Close()
}
