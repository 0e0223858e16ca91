package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/kjannette/marketpulse/internal/models"
)

// FanOut calls fetch once per key concurrently and waits for all of them.
// Outcome i always belongs to keys[i]. A failing or panicking fetch only
// affects its own outcome.
func FanOut[T any](ctx context.Context, keys []string, fetch func(ctx context.Context, key string) (T, error)) []models.FetchOutcome[T] {
	out := make([]models.FetchOutcome[T], len(keys))
	if len(keys) == 0 {
		return out
	}

	var wg sync.WaitGroup
	wg.Add(len(keys))
	for i, key := range keys {
		go func(i int, key string) {
			defer wg.Done()
			out[i] = fetchOne(ctx, key, fetch)
		}(i, key)
	}
	wg.Wait()
	return out
}

func fetchOne[T any](ctx context.Context, key string, fetch func(ctx context.Context, key string) (T, error)) (o models.FetchOutcome[T]) {
	o.Key = key
	defer func() {
		if r := recover(); r != nil {
			var zero T
			o.Value = zero
			o.Err = fmt.Errorf("%s: panic: %v", key, r)
		}
	}()
	o.Value, o.Err = fetch(ctx, key)
	return o
}

// async starts a single keyed fetch and returns a channel carrying its outcome.
func async[T any](ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) <-chan models.FetchOutcome[T] {
	ch := make(chan models.FetchOutcome[T], 1)
	go func() {
		ch <- fetchOne(ctx, key, func(ctx context.Context, _ string) (T, error) { return fetch(ctx) })
	}()
	return ch
}
