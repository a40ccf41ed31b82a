package util

import "sync"

// AtomicEvent holds a single, latest value and provides non-blocking
// updates. Producers may publish at any rate; a consumer that selects
// on Channel always observes the most recent value and never more
// than one pending notification. This is what carries intensity
// frames out of the tick callback without ever blocking it.
type AtomicEvent[T any] struct {
	mu     sync.Mutex
	value  T
	notify chan struct{}
}

// NewAtomicEvent creates a new AtomicEvent instance.
func NewAtomicEvent[T any]() *AtomicEvent[T] {
	return &AtomicEvent[T]{
		notify: make(chan struct{}, 1),
	}
}

// Send publishes the latest value. It never blocks; if a notification
// is already pending the value is simply replaced.
func (ae *AtomicEvent[T]) Send(value T) {
	ae.mu.Lock()
	ae.value = value
	ae.mu.Unlock()

	select {
	case ae.notify <- struct{}{}:
	default:
		// notification already pending
	}
}

// Channel returns the notification channel for use in select statements.
func (ae *AtomicEvent[T]) Channel() <-chan struct{} {
	return ae.notify
}

// Value returns the most recently published value.
func (ae *AtomicEvent[T]) Value() T {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	return ae.value
}
