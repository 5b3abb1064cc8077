package modem

import "sync"

// USSDRequest is a queued USSD code and the handler for its answer.
type USSDRequest struct {
	ID      string
	Code    string
	Handler USSDHandler
}

// SMSRequest is a queued outgoing text message.
type SMSRequest struct {
	ID   string
	To   string
	Text string
}

// fifo is an unbounded queue. Producers may push from any goroutine,
// including handlers running on the event loop.
type fifo[T any] struct {
	mu    sync.Mutex
	items []T
}

func (q *fifo[T]) push(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, v)
}

func (q *fifo[T]) pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return v, true
}

func (q *fifo[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
