package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder publishes ingestion metrics to Prometheus.
type Recorder struct {
	cycles        *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	fetchFailures *prometheus.CounterVec
	upserts       *prometheus.CounterVec
	workerState   *prometheus.GaugeVec
	lastSuccess   *prometheus.GaugeVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in
// the process and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_cycles_total",
				Help: "Ingestion cycles by job and outcome",
			},
			[]string{"job", "outcome"},
		),
		cycleDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketpulse_cycle_duration_seconds",
				Help:    "Duration of ingestion cycles in seconds",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"job"},
		),
		fetchFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_fetch_failures_total",
				Help: "Failed source fetches by job and source key",
			},
			[]string{"job", "source"},
		),
		upserts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_upserts_total",
				Help: "Upserted records by job and result",
			},
			[]string{"job", "result"},
		),
		workerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketpulse_worker_state",
				Help: "1 for the worker's current state, 0 otherwise",
			},
			[]string{"job", "state"},
		),
		lastSuccess: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketpulse_last_success_timestamp_seconds",
				Help: "Unix time of the last successful cycle",
			},
			[]string{"job"},
		),
	}
}

func (r *Recorder) CycleFinished(job string, ok bool, d time.Duration) {
	outcome := "failure"
	if ok {
		outcome = "success"
		r.lastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
	r.cycles.WithLabelValues(job, outcome).Inc()
	r.cycleDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (r *Recorder) FetchFailed(job, source string) {
	r.fetchFailures.WithLabelValues(job, source).Inc()
}

func (r *Recorder) Persisted(job string, attempted, failed int) {
	r.upserts.WithLabelValues(job, "ok").Add(float64(attempted - failed))
	r.upserts.WithLabelValues(job, "failed").Add(float64(failed))
}

// WorkerState marks state as current for job among all known states.
func (r *Recorder) WorkerState(job, state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		r.workerState.WithLabelValues(job, s).Set(v)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) CycleFinished(string, bool, time.Duration) {}
func (Nop) FetchFailed(string, string) {}
func (Nop) Persisted(string, int, int) {}
func (Nop) WorkerState(string, string, []string) {}
