package ingest

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/kjannette/marketpulse/internal/retry"
	"github.com/kjannette/marketpulse/internal/scheduler"
)

// Job fetches a batch of data and stores it. Fetch may be retried; Store is
// called once per successful Fetch.
type Job[T any] interface {
	Name() string
	Fetch(ctx context.Context) (T, error)
	Store(ctx context.Context, result T) error
}

type State int32

const (
	StateIdle State = iota
	StateFetching
	StatePersisting
	StateWaiting
)

var stateNames = []string{"idle", "fetching", "persisting", "waiting"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Worker runs a job once immediately and then again after every scheduler
// wake-up. A failed cycle is logged and never stops the loop.
type Worker[T any] struct {
	job    Job[T]
	sched  scheduler.Scheduler
	policy retry.Policy
	s      settings
	state  atomic.Int32
	cycles atomic.Int64
}

func NewWorker[T any](job Job[T], sched scheduler.Scheduler, policy retry.Policy, opts ...Option) *Worker[T] {
	w := &Worker[T]{job: job, sched: sched, policy: policy, s: newSettings(opts)}
	w.s.log = w.s.log.With().Str("job", job.Name()).Logger()
	return w
}

func (w *Worker[T]) Name() string { return w.job.Name() }

func (w *Worker[T]) State() State { return State(w.state.Load()) }

// Cycles reports how many cycles have finished, successful or not.
func (w *Worker[T]) Cycles() int64 { return w.cycles.Load() }

// Run blocks until ctx is cancelled.
func (w *Worker[T]) Run(ctx context.Context) error {
	w.s.log.Info().
		Int("max_attempts", w.policy.MaxAttempts).
		Dur("retry_delay", w.policy.Delay).
		Msg("starting ingestion worker")

	for {
		_ = w.RunCycle(ctx)
		if ctx.Err() != nil {
			break
		}

		w.setState(StateWaiting)
		if err := w.sched.WaitForNext(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			w.s.log.Error().Err(err).Msg("scheduler wait failed")
		}
	}

	w.setState(StateIdle)
	w.s.log.Info().Int64("cycles", w.Cycles()).Msg("ingestion worker stopped")
	return nil
}

// RunCycle performs one fetch-with-retry and store. The returned error is
// already logged.
func (w *Worker[T]) RunCycle(ctx context.Context) error {
	start := w.s.now()
	w.s.log.Info().Time("at", start.UTC()).Msg("running cycle")

	err := w.cycle(ctx)
	elapsed := w.s.now().Sub(start)
	w.cycles.Add(1)
	w.s.metrics.CycleFinished(w.job.Name(), err == nil, elapsed)

	switch {
	case err == nil:
		w.s.log.Info().Dur("elapsed", elapsed).Msg("cycle completed successfully")
	case errors.Is(err, context.Canceled):
		w.s.log.Warn().Err(err).Msg("cycle interrupted by shutdown")
	default:
		w.s.log.Error().Err(err).Dur("elapsed", elapsed).Msg("ingestion cycle failed")
		if w.s.notify != nil {
			w.s.notify.CycleFailed(ctx, w.job.Name(), err)
		}
	}
	return err
}

func (w *Worker[T]) cycle(ctx context.Context) error {
	w.setState(StateFetching)

	opts := []retry.Option{retry.WithLogger(w.s.log, w.job.Name())}
	if w.s.sleep != nil {
		opts = append(opts, retry.WithSleep(w.s.sleep))
	}
	result, err := retry.Do(ctx, w.policy, w.job.Fetch, opts...)
	if err != nil {
		return err
	}

	w.setState(StatePersisting)
	return w.job.Store(ctx, result)
}

func (w *Worker[T]) setState(s State) {
	w.state.Store(int32(s))
	w.s.metrics.WorkerState(w.job.Name(), s.String(), stateNames)
}
