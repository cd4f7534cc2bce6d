package feed

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("feed closed")

// Subscription is one live stream of snapshots.
type Subscription struct {
	hub    *Hub
	userID string

	mu     sync.Mutex
	ch     chan Snapshot
	closed bool
	gen    uint64 // newest generation offered
	once   sync.Once
	done   chan struct{}
}

// C delivers snapshots. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		close(s.done)
	})
}

// offer delivers snap without blocking, replacing an undelivered snapshot.
// Snapshots older than one already offered are dropped.
func (s *Subscription) offer(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || snap.gen < s.gen {
		return
	}
	s.gen = snap.gen
	select {
	case s.ch <- snap:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}
