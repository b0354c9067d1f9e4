// Package batch partitions sequences into fixed-size chunks for remote lookups.
//
// Ownership of the input is explicit: Slice re-reads a finite slice and can be
// ranged over any number of times, Seq drains a producer it does not own, and
// Collect snapshots a producer into a slice when repeatable batching is needed.
package batch

import (
	"iter"

	"github.com/agentstation/promise/pkg/errors"
)

// Slice yields consecutive chunks of items with at most size elements each.
// Only the final chunk may be shorter. Order is preserved and no element is
// skipped or repeated. Each chunk has its capacity clipped to its length, so
// appending to a chunk never overwrites the following items.
func Slice[T any](items []T, size int) (iter.Seq[[]T], error) {
	if err := validate(size); err != nil {
		return nil, err
	}
	return func(yield func([]T) bool) {
		for start := 0; start < len(items); start += size {
			end := min(start+size, len(items))
			if !yield(items[start:end:end]) {
				return
			}
		}
	}, nil
}

// Seq groups elements pulled from src into chunks of at most size elements.
// A one-shot producer is consumed destructively by the first range over the
// result; the result is restartable only when src is.
func Seq[T any](src iter.Seq[T], size int) (iter.Seq[[]T], error) {
	if err := validate(size); err != nil {
		return nil, err
	}
	return func(yield func([]T) bool) {
		chunk := make([]T, 0, size)
		for v := range src {
			chunk = append(chunk, v)
			if len(chunk) == size {
				if !yield(chunk) {
					return
				}
				chunk = make([]T, 0, size)
			}
		}
		if len(chunk) > 0 {
			yield(chunk)
		}
	}, nil
}

// Collect drains src into a slice.
func Collect[T any](src iter.Seq[T]) []T {
	var out []T
	for v := range src {
		out = append(out, v)
	}
	return out
}

// Count returns the number of chunks Slice produces for n items.
func Count(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

func validate(size int) error {
	if size <= 0 {
		return errors.NewValidationError("batch_size", size, "must be positive")
	}
	return nil
}
