package txn

import "errors"

// ErrQueueFull is returned by Queue.TryPut when the queue is at
// capacity. It is not fatal to the connection or service that hit it:
// the caller drops the offending transaction and logs a warning.
var ErrQueueFull = errors.New("txn: queue full")

// Queue is a bounded, thread-safe FIFO of Transactions with
// non-blocking try-semantics, backed by a buffered channel. Every
// Connection and every service record owns exactly two of these: one
// inbound, one outbound.
type Queue struct {
	ch chan Transaction
}

// NewQueue returns a Queue with the given bounded capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{ch: make(chan Transaction, capacity)}
}

// TryPut enqueues t without blocking. If the queue is full it returns
// ErrQueueFull and the caller is expected to drop t: the newest
// transaction loses on overflow.
func (q *Queue) TryPut(t Transaction) error {
	select {
	case q.ch <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// TryGet dequeues the next Transaction without blocking. ok is false if
// the queue was empty.
func (q *Queue) TryGet() (t Transaction, ok bool) {
	select {
	case t = <-q.ch:
		return t, true
	default:
		return Transaction{}, false
	}
}

// DrainAll removes and returns every Transaction currently buffered,
// without blocking. Used by the switchboard loop to sweep a queue once
// per pass.
func (q *Queue) DrainAll() []Transaction {
	var out []Transaction
	for {
		t, ok := q.TryGet()
		if !ok {
			return out
		}
		out = append(out, t)
	}
}

// Len reports the number of Transactions currently buffered.
func (q *Queue) Len() int {
	return len(q.ch)
}
