package simulator

import "sync"

// mailbox decouples the worker from the consumer: push never blocks, and a
// forwarding goroutine delivers events in order on out, closing it after the
// mailbox is closed and drained.
type mailbox struct {
	mu     sync.Mutex
	queue  []Event
	closed bool
	notify chan struct{}
	out    chan Event
}

func newMailbox() *mailbox {
	m := &mailbox{
		notify: make(chan struct{}, 1),
		out:    make(chan Event),
	}
	go m.forward()
	return m
}

func (m *mailbox) push(ev Event) {
	m.mu.Lock()
	m.queue = append(m.queue, ev)
	m.mu.Unlock()
	m.wake()
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.wake()
}

func (m *mailbox) wake() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *mailbox) forward() {
	defer close(m.out)
	for {
		m.mu.Lock()
		batch := m.queue
		m.queue = nil
		closed := m.closed
		m.mu.Unlock()

		for _, ev := range batch {
			m.out <- ev
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-m.notify
	}
}
