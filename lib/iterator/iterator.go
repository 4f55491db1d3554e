package iterator

import "context"

type Iterator[T any] interface {
	HasNext() bool
	Next() (T, error)
}

// StreamingIterator is an [Iterator] over a source that acknowledges what it produced. CommitOffset is called once
// everything returned by [Iterator.Next] so far has been written.
type StreamingIterator[T any] interface {
	Iterator[T]
	CommitOffset(ctx context.Context) error
}

// Collect returns a new slice containing all the items from an [Iterator].
func Collect[T any](iter Iterator[T]) ([]T, error) {
	var result []T
	for iter.HasNext() {
		value, err := iter.Next()
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	return result, nil
}
