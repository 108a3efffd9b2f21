// Package metrics exposes bridge counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/uartbridge/pkg/sink"
	"github.com/robotalks/uartbridge/pkg/telemetry"
)

const namespace = "uartbridge"

// Metrics counts ingestion cycles and keeps the last reading.
// It is used as an observer of the bridge loop.
type Metrics struct {
	Registry *prometheus.Registry

	Records         prometheus.Counter
	IdleReads       prometheus.Counter
	ReadErrors      prometheus.Counter
	DiscardedTokens prometheus.Counter
	UnknownKeys     prometheus.Counter
	FramesSent      *prometheus.CounterVec // by sink
	SinkErrors      *prometheus.CounterVec // by sink
	Reading         *prometheus.GaugeVec   // by field
}

func counter(subsystem, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

// New creates Metrics registered in a dedicated registry,
// together with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry:        prometheus.NewRegistry(),
		Records:         counter("uart", "records_total", "Raw records read from the serial link"),
		IdleReads:       counter("uart", "idle_reads_total", "Reads which timed out with no data"),
		ReadErrors:      counter("uart", "read_errors_total", "Serial read failures"),
		DiscardedTokens: counter("decoder", "discarded_tokens_total", "Malformed fields dropped while decoding"),
		UnknownKeys:     counter("decoder", "unknown_keys_total", "Well formed fields with unrecognized keys"),
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "frames_sent_total",
			Help:      "Frames delivered per sink",
		}, []string{"sink"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "errors_total",
			Help:      "Failed deliveries per sink",
		}, []string{"sink"}),
		Reading: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reading",
			Help:      "Last normalized value per field",
		}, []string{"field"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Records,
		m.IdleReads,
		m.ReadErrors,
		m.DiscardedTokens,
		m.UnknownKeys,
		m.FramesSent,
		m.SinkErrors,
		m.Reading,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Idle counts a read that timed out.
func (m *Metrics) Idle() {
	m.IdleReads.Inc()
}

// ReadError counts a failed read.
func (m *Metrics) ReadError(err error) {
	m.ReadErrors.Inc()
}

// Record counts a received record and its decoding outcome.
func (m *Metrics) Record(rec telemetry.RawRecord, decoded telemetry.Decoded) {
	m.Records.Inc()
	m.DiscardedTokens.Add(float64(decoded.Discarded))
	m.UnknownKeys.Add(float64(decoded.Unknown()))
}

// Delivered updates the last reading and per-sink outcomes.
func (m *Metrics) Delivered(frame *telemetry.Frame, results []sink.Result) {
	r := frame.Reading
	m.Reading.WithLabelValues(string(telemetry.KeySoil1)).Set(float64(r.Soil1))
	m.Reading.WithLabelValues(string(telemetry.KeySoil2)).Set(float64(r.Soil2))
	m.Reading.WithLabelValues(string(telemetry.KeyTank)).Set(float64(r.Tank))
	rain := 0.0
	if r.Rain {
		rain = 1
	}
	m.Reading.WithLabelValues(string(telemetry.KeyRain)).Set(rain)
	m.Reading.WithLabelValues(string(telemetry.KeyAmb)).Set(r.Amb)
	m.Reading.WithLabelValues(string(telemetry.KeyTemp)).Set(r.Temp)
	for _, res := range results {
		if res.Err != nil {
			m.SinkErrors.WithLabelValues(res.Sink).Inc()
		} else {
			m.FramesSent.WithLabelValues(res.Sink).Inc()
		}
	}
}
