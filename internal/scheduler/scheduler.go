package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler suspends the caller until the next scheduled run.
type Scheduler interface {
	WaitForNext(ctx context.Context) error
}

// FixedInterval waits the same duration on every call, measured from the
// moment of the call. Cycle processing time therefore accumulates as drift.
type FixedInterval struct {
	interval time.Duration
	logger   zerolog.Logger
}

func NewFixedInterval(interval time.Duration, logger zerolog.Logger) *FixedInterval {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &FixedInterval{
		interval: interval,
		logger:   logger.With().Str("component", "scheduler").Str("kind", "fixed").Logger(),
	}
}

func (f *FixedInterval) Interval() time.Duration { return f.interval }

func (f *FixedInterval) WaitForNext(ctx context.Context) error {
	f.logger.Info().Dur("interval", f.interval).Msgf("next run in %s", f.interval)
	return sleep(ctx, f.interval)
}

// Calendar waits until an absolute instant computed from a cron schedule in
// UTC, so processing time never shifts the grid.
type Calendar struct {
	label    string
	schedule cron.Schedule
	now      func() time.Time
	logger   zerolog.Logger
}

const monthlySpec = "0 0 1 * *"

var monthly = mustParse(monthlySpec)

// NewMonthlyBoundary returns a scheduler that wakes at 00:00:00 UTC on the
// first day of each month.
func NewMonthlyBoundary(logger zerolog.Logger) *Calendar {
	return newCalendar("monthly", monthly, logger)
}

// NewCron returns a scheduler for a standard five-field cron expression,
// evaluated in UTC.
func NewCron(expr string, logger zerolog.Logger) (*Calendar, error) {
	s, err := parseUTC(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	return newCalendar("cron", s, logger), nil
}

func newCalendar(label string, s cron.Schedule, logger zerolog.Logger) *Calendar {
	return &Calendar{
		label:    label,
		schedule: s,
		now:      time.Now,
		logger:   logger.With().Str("component", "scheduler").Str("kind", label).Logger(),
	}
}

// WithClock overrides the wall clock; used by tests.
func (c *Calendar) WithClock(now func() time.Time) *Calendar {
	c.now = now
	return c
}

// Next returns the first scheduled instant strictly after now.
func (c *Calendar) Next(now time.Time) time.Time {
	return c.schedule.Next(now.UTC())
}

func (c *Calendar) WaitForNext(ctx context.Context) error {
	now := c.now().UTC()
	next := c.Next(now)
	wait := next.Sub(now)

	c.logger.Info().
		Time("next_run", next).
		Float64("hours", wait.Hours()).
		Msgf("next %s run scheduled at %s (in %.0f hours)", c.label, next.Format(time.RFC3339), wait.Hours())

	return sleep(ctx, wait)
}

// NextMonthBoundary returns 00:00:00 UTC on the first day of the calendar
// month following now.
func NextMonthBoundary(now time.Time) time.Time {
	return monthly.Next(now.UTC())
}

func parseUTC(expr string) (cron.Schedule, error) {
	return cron.ParseStandard("CRON_TZ=UTC " + expr)
}

func mustParse(expr string) cron.Schedule {
	s, err := parseUTC(expr)
	if err != nil {
		panic(err)
	}
	return s
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
