package ast

import (
	"iter"

	"fortio.org/safecast"
)

// Arena is an append-only store addressed by 1-based indices; index 0 is
// the "no node" sentinel.
type Arena[T any] struct {
	data []T
}

func NewArena[T any](capHint uint) *Arena[T] {
	return &Arena[T]{data: make([]T, 0, capHint)}
}

// Allocate appends value and returns its index. Panics past 2^32-1 entries.
func (a *Arena[T]) Allocate(value T) uint32 {
	a.data = append(a.data, value)
	return a.Len()
}

func (a *Arena[T]) Get(index uint32) *T {
	if index == 0 || uint64(index) > uint64(len(a.data)) {
		return nil
	}
	return &a.data[index-1]
}

func (a *Arena[T]) Len() uint32 {
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(err)
	}
	return n
}

// All yields (index, element) in allocation order.
func (a *Arena[T]) All() iter.Seq2[uint32, *T] {
	return func(yield func(uint32, *T) bool) {
		var idx uint32
		for i := range a.data {
			idx++
			if !yield(idx, &a.data[i]) {
				return
			}
		}
	}
}
