// Package mailbox provides the bounded message primitives the control core
// uses between tasks: a single-slot overwrite-latest mailbox, a bounded
// coalescing queue, and a non-blocking send helper. None of the operations
// ever block the caller.
package mailbox

// Mailbox is a capacity-1 slot. Put replaces any undelivered value, so a
// consumer that falls behind only ever sees the most recent one.
type Mailbox[T any] struct {
	ch chan T
}

func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ch: make(chan T, 1)}
}

// Put stores v, discarding a previously stored value that was never taken.
func (m *Mailbox[T]) Put(v T) {
	for {
		select {
		case m.ch <- v:
			return
		default:
		}
		// Slot full: evict the stale value and retry.
		select {
		case <-m.ch:
		default:
		}
	}
}

// TryTake removes and returns the stored value, if any.
func (m *Mailbox[T]) TryTake() (T, bool) {
	select {
	case v := <-m.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Queue is a bounded queue with drop-on-full producers and a coalescing
// consumer. Producers never block; the consumer drains to the newest entry.
type Queue[T any] struct {
	ch chan T
}

func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// TryPush enqueues v. Returns false when the queue is full.
func (q *Queue[T]) TryPush(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// DrainLatest empties the queue and returns the last value it held.
// Intermediate entries are discarded.
func (q *Queue[T]) DrainLatest() (T, bool) {
	var last T
	got := false
	for {
		select {
		case v := <-q.ch:
			last = v
			got = true
		default:
			return last, got
		}
	}
}

func (q *Queue[T]) Len() int { return len(q.ch) }

// TrySend performs a non-blocking send on a raw channel. A nil or full
// channel drops the value; that is the expected backpressure path, not an
// error.
func TrySend[T any](ch chan<- T, v T) bool {
	if ch == nil {
		return false
	}
	select {
	case ch <- v:
		return true
	default:
		return false
	}
}
