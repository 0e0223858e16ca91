package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kjannette/marketpulse/internal/metrics"
)

// Metrics receives cycle, fetch and persist events.
type Metrics interface {
	CycleFinished(job string, ok bool, d time.Duration)
	FetchFailed(job, source string)
	Persisted(job string, attempted, failed int)
	WorkerState(job, state string, all []string)
}

// Notifier is told about cycles that failed after every retry.
type Notifier interface {
	CycleFailed(ctx context.Context, job string, err error)
}

type settings struct {
	log     zerolog.Logger
	metrics Metrics
	notify  Notifier
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option configures jobs and workers.
type Option func(*settings)

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

func WithMetrics(m Metrics) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *settings) { s.notify = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithRetrySleep replaces the wait between retry attempts.
func WithRetrySleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *settings) { s.sleep = fn }
}

func newSettings(opts []Option) settings {
	s := settings{
		log:     zerolog.Nop(),
		metrics: metrics.Nop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
