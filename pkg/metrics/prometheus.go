package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsTotal *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	tradesTotal *prometheus.CounterVec
	connected   prometheus.Gauge
	signalCount prometheus.Gauge
	totalEquity prometheus.Gauge
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_stream_events_total",
				Help: "Total number of stream events received, by kind",
			},
			[]string{"kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		tradesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_trades_total",
				Help: "Total number of paper trades submitted",
			},
			[]string{"side", "result"},
		),
		connected: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "signaldesk_stream_connected",
				Help: "1 when the backend stream is connected, 0 otherwise",
			},
		),
		signalCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "signaldesk_signal_count",
				Help: "Number of signals in the current snapshot",
			},
		),
		totalEquity: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "signaldesk_total_equity",
				Help: "Last reported portfolio total equity",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaldesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvent records a received stream event.
func (r *Recorder) RecordEvent(kind string) {
	r.eventsTotal.WithLabelValues(kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordConnected records the stream connection state.
func (r *Recorder) RecordConnected(connected bool) {
	if connected {
		r.connected.Set(1)
		return
	}
	r.connected.Set(0)
}

// RecordSignalCount records the size of the current signal snapshot.
func (r *Recorder) RecordSignalCount(n int) {
	r.signalCount.Set(float64(n))
}

// RecordEquity records the latest portfolio total equity.
func (r *Recorder) RecordEquity(v float64) {
	r.totalEquity.Set(v)
}

// RecordTrade records a submitted paper trade and its outcome.
func (r *Recorder) RecordTrade(side string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.tradesTotal.WithLabelValues(side, result).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
