package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var ErrInvalidPolicy = errors.New("retry: invalid policy")

// Policy bounds how often an operation is attempted. The delay between
// attempts is fixed; it does not grow.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

var DefaultPolicy = Policy{
	MaxAttempts: 3,
	Delay:       30 * time.Second,
}

func NewPolicy(maxAttempts int, delay time.Duration) (Policy, error) {
	p := Policy{MaxAttempts: maxAttempts, Delay: delay}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts %d < 1", ErrInvalidPolicy, p.MaxAttempts)
	}
	if p.Delay < 0 {
		return fmt.Errorf("%w: negative delay %s", ErrInvalidPolicy, p.Delay)
	}
	return nil
}

type settings struct {
	name   string
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

type Option func(*settings)

// WithLogger attaches a logger; name identifies the job in attempt warnings.
func WithLogger(logger zerolog.Logger, name string) Option {
	return func(s *settings) {
		s.logger = logger
		s.name = name
	}
}

// WithSleep replaces the inter-attempt wait.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *settings) {
		s.sleep = fn
	}
}

// Do calls op until it succeeds or the policy's attempts are used up. On
// exhaustion the error from the final attempt is returned; earlier errors are
// dropped.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	if err := p.Validate(); err != nil {
		return zero, err
	}

	s := settings{name: "operation", logger: zerolog.Nop(), sleep: sleepCtx}
	for _, o := range opts {
		o(&s)
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		s.logger.Warn().
			Err(err).
			Str("job", s.name).
			Int("attempt", attempt).
			Int("max_attempts", p.MaxAttempts).
			Msgf("attempt %d/%d for %s failed", attempt, p.MaxAttempts, s.name)

		if attempt == p.MaxAttempts {
			break
		}

		if err := s.sleep(ctx, p.Delay); err != nil {
			return zero, fmt.Errorf("%s: retry aborted after attempt %d: %w (last error: %v)", s.name, attempt, err, lastErr)
		}
	}

	return zero, fmt.Errorf("%s: all %d attempts failed, last error: %w", s.name, p.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
