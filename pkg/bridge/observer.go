package bridge

import (
	"github.com/golang/glog"

	"github.com/robotalks/uartbridge/pkg/sink"
	"github.com/robotalks/uartbridge/pkg/telemetry"
)

// LogObserver traces cycles and reports sink health changes.
// Warnings are only logged on transitions to avoid flooding.
type LogObserver struct {
	failing     map[string]bool
	readFailing bool
}

// NewLogObserver creates a LogObserver.
func NewLogObserver() *LogObserver {
	return &LogObserver{failing: make(map[string]bool)}
}

// Idle implements Observer.
func (l *LogObserver) Idle() {
	glog.V(3).Info("idle")
}

// ReadError implements Observer.
func (l *LogObserver) ReadError(err error) {
	if !l.readFailing {
		glog.Warningf("serial read: %v", err)
		l.readFailing = true
	}
}

// Record implements Observer.
func (l *LogObserver) Record(rec telemetry.RawRecord, decoded telemetry.Decoded) {
	l.readFailing = false
	if glog.V(2) {
		glog.Infof("RX %q discarded=%d unknown=%d", rec.String(), decoded.Discarded, decoded.Unknown())
	}
}

// Delivered implements Observer.
func (l *LogObserver) Delivered(frame *telemetry.Frame, results []sink.Result) {
	glog.V(2).Infof("TX %s", frame)
	for _, res := range results {
		switch {
		case res.Err != nil && !l.failing[res.Sink]:
			glog.Warningf("sink %s: %v", res.Sink, res.Err)
			l.failing[res.Sink] = true
		case res.Err == nil && l.failing[res.Sink]:
			glog.Infof("sink %s recovered", res.Sink)
			delete(l.failing, res.Sink)
		}
	}
}

// Failing reports whether the last delivery to the sink failed.
func (l *LogObserver) Failing(sinkName string) bool {
	return l.failing[sinkName]
}
