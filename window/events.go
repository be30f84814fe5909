package window

import "sync"

// DefaultEventQueueSize is the queue capacity used when none is given.
const DefaultEventQueueSize = 256

// Event runs on the goroutine that owns the window.
type Event func(w *TerminalWindow)

// EventQueue carries work from other goroutines to the window owner.
type EventQueue struct {
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// NewEventQueue creates a queue holding up to size pending events.
func NewEventQueue(size int) *EventQueue {
	return &EventQueue{
		ch:   make(chan Event, size),
		done: make(chan struct{}),
	}
}

// Post enqueues e, blocking while the queue is full. It is safe to call
// from any goroutine and returns false once the queue is closed.
func (q *EventQueue) Post(e Event) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.ch <- e:
		return true
	case <-q.done:
		return false
	}
}

// C returns the channel events arrive on, for use in select loops.
func (q *EventQueue) C() <-chan Event { return q.ch }

// Done is closed when the queue is closed.
func (q *EventQueue) Done() <-chan struct{} { return q.done }

// Close stops accepting events. Pending events stay readable.
func (q *EventQueue) Close() {
	q.once.Do(func() { close(q.done) })
}

// ProcessEvents runs every pending event without blocking and returns how
// many ran. It must be called on the owner goroutine.
func (w *TerminalWindow) ProcessEvents() int {
	n := 0
	for {
		select {
		case e := <-w.events.ch:
			e(w)
			n++
		default:
			return n
		}
	}
}
