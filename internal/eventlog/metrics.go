package eventlog

import "github.com/prometheus/client_golang/prometheus"

// metrics counts subsystem activity. Counters work whether or not they are
// registered, so a nil registerer simply keeps them private.
type metrics struct {
	enqueued   *prometheus.CounterVec
	flushes    *prometheus.CounterVec
	retries    prometheus.Counter
	dropped    *prometheus.CounterVec
	suppressed prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logship",
			Name:      "entries_enqueued_total",
			Help:      "Entries accepted into a category buffer for remote delivery.",
		}, []string{"category"}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logship",
			Name:      "batches_flushed_total",
			Help:      "Batch delivery outcomes by category.",
		}, []string{"category", "outcome"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "logship",
			Name:      "send_retries_total",
			Help:      "Bulk delivery attempts beyond the first.",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logship",
			Name:      "entries_dropped_total",
			Help:      "Entries discarded after the retry budget was exhausted.",
		}, []string{"category"}),
		suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "logship",
			Name:      "entries_suppressed_total",
			Help:      "Entries skipped for remote delivery while degraded.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.enqueued, m.flushes, m.retries, m.dropped, m.suppressed)
	}
	return m
}
