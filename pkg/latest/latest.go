// Package latest provides a single-producer single-consumer triple
// buffer. The producer always has a slot to write into and the consumer
// always sees the most recently published value; intermediate values
// are dropped when the producer outpaces the consumer.
package latest

import "sync/atomic"

const dirty = 0x4 // set on the shared slot when it holds unread data

// Buffer is a triple buffer of T. One goroutine may call
// StartWrite/Publish and one other goroutine may call Refresh/Current;
// neither ever blocks the other.
type Buffer[T any] struct {
	slots [3]T

	// shared holds the index of the slot neither side is touching,
	// with the dirty bit set if it was published and not yet consumed.
	shared   atomic.Uint32
	writeIdx uint32
	readIdx  uint32
}

// New creates an empty Buffer.
func New[T any]() *Buffer[T] {
	b := &Buffer[T]{writeIdx: 1, readIdx: 2}
	b.shared.Store(0)
	return b
}

// StartWrite returns the slot the producer should fill next. The slot
// stays valid until the following Publish.
func (b *Buffer[T]) StartWrite() *T {
	return &b.slots[b.writeIdx]
}

// Publish makes the slot returned by the last StartWrite visible to the
// consumer, replacing any published value it has not picked up yet.
func (b *Buffer[T]) Publish() {
	old := b.shared.Swap(b.writeIdx | dirty)
	b.writeIdx = old &^ dirty
}

// Refresh advances the consumer to the most recently published value.
// It reports whether a new value was available; when it returns false
// Current still points at the previous value.
func (b *Buffer[T]) Refresh() bool {
	if b.shared.Load()&dirty == 0 {
		return false
	}
	// The producer can publish again between the load and the swap,
	// but it never clears the dirty bit, so the swapped-out slot is
	// always the freshest published value.
	old := b.shared.Swap(b.readIdx)
	b.readIdx = old &^ dirty
	return true
}

// Current returns the slot most recently obtained by Refresh. It is
// only meaningful after Refresh has returned true at least once.
func (b *Buffer[T]) Current() *T {
	return &b.slots[b.readIdx]
}
