// Package graph implements the small path-addressed, eventually consistent
// record store the chat client is built on: point-in-time reads, live
// subscriptions with at-least-once unordered delivery, merge writes, and
// optional PebbleDB persistence plus WebSocket relay peering.
package graph

import (
	"context"
	"strings"
	"sync"
)

// Record is a loosely-typed document stored at a path. A nil Record in an
// Event means the record was nullified upstream.
type Record map[string]any

// clone returns a shallow copy so callers never alias store-internal maps.
func (r Record) clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Event is one change notification for a child of a subscribed collection.
type Event struct {
	Key    string
	Record Record // nil on deletion
}

// Store is the boundary the chat client programs against. Subscriptions
// replay a snapshot of existing children and then stream live changes over
// the same channel; delivery is unordered and at-least-once, so consumers
// must deduplicate by key.
type Store interface {
	// ReadOnce returns the current record at path, or nil if absent.
	ReadOnce(ctx context.Context, path string) (Record, error)
	// Children returns a snapshot of the direct children of a collection.
	Children(ctx context.Context, collection string) (map[string]Record, error)
	// Subscribe attaches a live listener to a collection.
	Subscribe(collection string) *Subscription
	// Write merges fields into the record at path, creating it if absent.
	Write(ctx context.Context, path string, fields Record) error
	// Delete nullifies the record at path.
	Delete(ctx context.Context, path string) error
	// Append writes fields under a new store-assigned key in collection
	// and returns that key.
	Append(ctx context.Context, collection string, fields Record) (string, error)
}

// Subscription is a detachable live listener on a collection. A single
// pump goroutine owns the outbound channel, so pushes from the store never
// race with Detach.
type Subscription struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
	events chan Event
	done   chan struct{}
	detach func(*Subscription)
}

func newSubscription(detach func(*Subscription)) *Subscription {
	s := &Subscription{
		events: make(chan Event, 64),
		done:   make(chan struct{}),
		detach: detach,
	}
	s.cond = sync.NewCond(&s.mu)
	go s.pump()
	return s
}

// Events returns the channel the snapshot replay and live feed arrive on.
// It is closed once the subscription is detached.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Detach stops the feed. Detaching an already-detached subscription is a
// no-op.
func (s *Subscription) Detach() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.cond.Signal()
	s.mu.Unlock()
	if s.detach != nil {
		s.detach(s)
	}
}

// push queues an event for delivery. Pushes after Detach are dropped.
func (s *Subscription) push(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, ev)
	s.cond.Signal()
}

func (s *Subscription) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			close(s.events)
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.events <- ev:
		case <-s.done:
			close(s.events)
			return
		}
	}
}

// parentOf splits a record path into its containing collection and key.
// "chatrooms/abc" -> ("chatrooms", "abc").
func parentOf(path string) (collection, key string) {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// childKey returns the direct child key of collection that path names,
// or "" if path is not a direct child.
func childKey(collection, path string) string {
	if !strings.HasPrefix(path, collection+"/") {
		return ""
	}
	rest := path[len(collection)+1:]
	if rest == "" || strings.ContainsRune(rest, '/') {
		return ""
	}
	return rest
}
