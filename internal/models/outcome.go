package models

import "fmt"

// FetchOutcome is the result of asking one source for one value. Key always
// identifies what was requested so a failure can be attributed.
type FetchOutcome[T any] struct {
	Key   string
	Value T
	Err   error
}

func (o FetchOutcome[T]) OK() bool { return o.Err == nil }

func (o FetchOutcome[T]) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%s: error: %v", o.Key, o.Err)
	}
	return fmt.Sprintf("%s: ok", o.Key)
}

// Succeeded returns the values of all successful outcomes, in order.
func Succeeded[T any](outcomes []FetchOutcome[T]) []T {
	out := make([]T, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() {
			out = append(out, o.Value)
		}
	}
	return out
}

// Failed counts the outcomes carrying an error.
func Failed[T any](outcomes []FetchOutcome[T]) int {
	n := 0
	for _, o := range outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}
