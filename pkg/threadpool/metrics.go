package threadpool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a pool.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	JobsSubmitted prometheus.Counter
	JobsCompleted prometheus.Counter
	JobsFailed    prometheus.Counter
	WorkersAlive  prometheus.Gauge
	JobDuration   prometheus.Histogram
	QueueWait     prometheus.Histogram
}

// NewMetrics creates the pool collectors and registers them with reg when reg is not nil.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	const subsystem = "threadpool"

	m := &Metrics{
		JobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "jobs_submitted_total",
			Help:      "Total number of jobs submitted to the pool",
		}),
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "jobs_completed_total",
			Help:      "Total number of jobs that ran to completion, including failed ones",
		}),
		JobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "jobs_failed_total",
			Help:      "Total number of jobs that returned an error or panicked",
		}),
		WorkersAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workers_alive",
			Help:      "Current number of live workers",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "job_duration_seconds",
			Help:      "Histogram of job execution time",
			Buckets:   prometheus.DefBuckets,
		}),
		QueueWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_wait_seconds",
			Help:      "Histogram of time jobs spent queued before a worker picked them up",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.JobsSubmitted,
			m.JobsCompleted,
			m.JobsFailed,
			m.WorkersAlive,
			m.JobDuration,
			m.QueueWait,
		)
	}

	return m
}

func (m *Metrics) submitted() {
	if m == nil {
		return
	}
	m.JobsSubmitted.Inc()
}

func (m *Metrics) started(wait time.Duration) {
	if m == nil {
		return
	}
	m.QueueWait.Observe(wait.Seconds())
}

func (m *Metrics) finished(d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.JobsCompleted.Inc()
	m.JobDuration.Observe(d.Seconds())
	if failed {
		m.JobsFailed.Inc()
	}
}

func (m *Metrics) workerUp() {
	if m == nil {
		return
	}
	m.WorkersAlive.Inc()
}

func (m *Metrics) workerDown() {
	if m == nil {
		return
	}
	m.WorkersAlive.Dec()
}
