package store

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"PaintBoard/internal/state"
)

// Hub is an in-process bus. Subscribers run on the publisher's goroutine in
// subscription order, and a publisher receives its own messages.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*hubSub
	order  []uint64
	nextID uint64
	closed bool
}

type hubSub struct {
	hub    *Hub
	id     uint64
	filter Filter
	fn     func(state.Message)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*hubSub)}
}

func (h *Hub) Publish(ctx context.Context, msg state.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*hubSub, 0, len(h.order))
	for _, id := range h.order {
		if s := h.subs[id]; s.filter.Match(msg) {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	glog.V(2).Infof("[hub] publish %s from %s to %d subscribers", msg.Type, msg.Emitter, len(targets))
	for _, s := range targets {
		s.fn(msg)
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, f Filter, fn func(state.Message)) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	h.nextID++
	s := &hubSub{hub: h, id: h.nextID, filter: f, fn: fn}
	h.subs[s.id] = s
	h.order = append(h.order, s.id)
	return s, nil
}

func (h *Hub) remove(id uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[id]; !ok {
		return ErrNotFound
	}
	delete(h.subs, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subs = make(map[uint64]*hubSub)
	h.order = nil
	return nil
}

func (s *hubSub) Unsubscribe() error {
	return s.hub.remove(s.id)
}
