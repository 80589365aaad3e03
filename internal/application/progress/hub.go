package progress

import (
	"context"
	"iter"
	"sync"

	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
)

const defaultBuffer = 64

// Hub fans progress events out to every subscriber of a job id. A job's
// topic exists only while someone is subscribed; events published with no
// subscriber attached are dropped, the job store stays the authority.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Publish never blocks on slow subscribers: when a subscriber's buffer is
// full its oldest pending event is discarded. Terminal events close every
// subscription of the job after delivery.
func (h *Hub) Publish(ctx context.Context, jobID string, ev domain.ProgressEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.topics[jobID]
	for sub := range subs {
		sub.offer(ev)
	}

	if ev.Terminal() {
		for sub := range subs {
			sub.closeLocked()
		}
		delete(h.topics, jobID)
	}
	return nil
}

func (h *Hub) Subscribe(jobID string) *Subscription {
	sub := &Subscription{
		hub:   h,
		jobID: jobID,
		ch:    make(chan domain.ProgressEvent, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[jobID]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[jobID] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.closed {
		return
	}
	subs := h.topics[sub.jobID]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, sub.jobID)
	}
	sub.closeLocked()
}

// Subscription is a finite, single-use stream of one job's events. It ends
// after the first terminal event.
type Subscription struct {
	hub    *Hub
	jobID  string
	ch     chan domain.ProgressEvent
	closed bool
	done   bool
}

// Next blocks until the next event, the end of the stream or ctx is done.
func (s *Subscription) Next(ctx context.Context) (domain.ProgressEvent, bool) {
	if s.done {
		return domain.ProgressEvent{}, false
	}

	select {
	case <-ctx.Done():
		return domain.ProgressEvent{}, false
	case ev, ok := <-s.ch:
		if !ok {
			s.done = true
			return domain.ProgressEvent{}, false
		}
		if ev.Terminal() {
			s.done = true
			s.Close()
		}
		return ev, true
	}
}

// Events adapts the subscription to a range-over-func sequence and
// unsubscribes when the loop exits.
func (s *Subscription) Events(ctx context.Context) iter.Seq[domain.ProgressEvent] {
	return func(yield func(domain.ProgressEvent) bool) {
		defer s.Close()
		for {
			ev, ok := s.Next(ctx)
			if !ok || !yield(ev) {
				return
			}
		}
	}
}

func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

// offer and closeLocked require hub.mu.
func (s *Subscription) offer(ev domain.ProgressEvent) {
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
		return
	default:
	}

	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- ev:
	default:
	}
}

func (s *Subscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
