package uart

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/robotalks/uartbridge/pkg/telemetry"
)

// DefaultTimeout is how long a read waits for the first byte of a record.
const DefaultTimeout = 100 * time.Millisecond

// TimeoutReader is a stream whose Read returns (0, nil) when the read
// timeout elapses with no data, e.g. a go.bug.st/serial Port.
type TimeoutReader interface {
	io.Reader
	SetReadTimeout(time.Duration) error
}

// DeadlineReader is a stream supporting read deadlines, e.g. net.Conn
// or a pollable *os.File.
type DeadlineReader interface {
	io.Reader
	SetReadDeadline(time.Time) error
}

type readMode int

const (
	modeDetect   readMode = iota
	modeTimeout           // Read returns on its own after Timeout
	modeDeadline          // deadline is set before each Read
	modePump              // a goroutine reads, Next waits on a timer
)

type chunk struct {
	data telemetry.RawRecord
	err  error
}

// FrameReader yields one RawRecord per read from the sensor stream.
type FrameReader struct {
	Reader      io.Reader
	Timeout     time.Duration
	ReadTimeout bool // set to true if Reader already returns after Timeout with no data

	mode     readMode
	buf      []byte
	chunkCh  chan chunk
	pumping  bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewFrameReader creates a FrameReader.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		Reader:  r,
		Timeout: DefaultTimeout,
		chunkCh: make(chan chunk),
		stopCh:  make(chan struct{}),
	}
}

// Next waits up to Timeout for a record. It returns a nil record when no
// byte arrived. A read error is returned alongside a nil record, only
// after the timeout elapsed so a broken stream doesn't spin the caller.
func (f *FrameReader) Next(ctx context.Context) (telemetry.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.mode == modeDetect {
		f.mode = f.detectMode()
	}
	start := time.Now()
	switch f.mode {
	case modeTimeout:
		return f.readOnce(ctx, start)
	case modeDeadline:
		if err := f.Reader.(DeadlineReader).SetReadDeadline(start.Add(f.timeout())); err != nil {
			f.mode = modePump
			return f.nextChunk(ctx, start)
		}
		return f.readOnce(ctx, start)
	default:
		return f.nextChunk(ctx, start)
	}
}

// Close stops the background reader if any. It doesn't close Reader.
func (f *FrameReader) Close() error {
	f.stopOnce.Do(func() { close(f.stopCh) })
	return nil
}

func (f *FrameReader) timeout() time.Duration {
	if f.Timeout <= 0 {
		return DefaultTimeout
	}
	return f.Timeout
}

func (f *FrameReader) detectMode() readMode {
	if f.ReadTimeout {
		return modeTimeout
	}
	switch r := f.Reader.(type) {
	case TimeoutReader:
		if r.SetReadTimeout(f.timeout()) == nil {
			return modeTimeout
		}
	case DeadlineReader:
		return modeDeadline
	}
	return modePump
}

func (f *FrameReader) readOnce(ctx context.Context, start time.Time) (telemetry.RawRecord, error) {
	if f.buf == nil {
		f.buf = make([]byte, telemetry.MaxRecordLen)
	}
	n, err := f.Reader.Read(f.buf)
	if n > 0 {
		return telemetry.NewRawRecord(f.buf[:n]), nil
	}
	if err == nil || os.IsTimeout(err) {
		return nil, nil
	}
	f.idle(ctx, start)
	return nil, err
}

func (f *FrameReader) nextChunk(ctx context.Context, start time.Time) (telemetry.RawRecord, error) {
	if !f.pumping {
		f.pumping = true
		go f.pump()
	}
	timer := time.NewTimer(f.timeout())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	case c := <-f.chunkCh:
		if c.err == nil {
			return c.data, nil
		}
		f.pumping = false
		if len(c.data) > 0 {
			return c.data, nil
		}
		f.idle(ctx, start)
		return nil, c.err
	}
}

// maxEmptyReads is how many consecutive (0, nil) reads the pump accepts
// before it gives up with io.ErrNoProgress.
const maxEmptyReads = 100

func (f *FrameReader) pump() {
	empty := 0
	for {
		buf := make([]byte, telemetry.MaxRecordLen)
		n, err := f.Reader.Read(buf)
		if n == 0 && err == nil {
			if empty++; empty < maxEmptyReads {
				continue
			}
			err = io.ErrNoProgress
		}
		empty = 0
		select {
		case f.chunkCh <- chunk{data: telemetry.RawRecord(buf[:n]), err: err}:
		case <-f.stopCh:
			return
		}
		if err != nil {
			return
		}
	}
}

func (f *FrameReader) idle(ctx context.Context, start time.Time) {
	wait := f.timeout() - time.Since(start)
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
