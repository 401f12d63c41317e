package net

import (
	"errors"

	"PaintBoard/internal/state"
	"PaintBoard/internal/store"
)

// ErrRemote wraps an error reported by the server.
var ErrRemote = errors.New("remote backend")

const (
	opPublish     = "publish"
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
	opCreate      = "create"
	opSearch      = "search"
	opCount       = "count"
	opDelete      = "delete"

	opResult = "result"
	opError  = "error"
	opEvent  = "event"
)

// Frame is the single JSON shape exchanged over the WebSocket. Requests
// carry an id that the response echoes; a publish with id 0 gets no
// response. Subscription ids are chosen by the client and tag event frames.
type Frame struct {
	ID      uint64              `json:"id,omitempty"`
	Op      string              `json:"op"`
	Sub     uint64              `json:"sub,omitempty"`
	Message *state.Message      `json:"message,omitempty"`
	Filter  *store.Filter       `json:"filter,omitempty"`
	Sort    *store.Sort         `json:"sort,omitempty"`
	Page    *store.Page         `json:"page,omitempty"`
	DocID   string              `json:"docId,omitempty"`
	Count   int                 `json:"count,omitempty"`
	Result  *store.SearchResult `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func (f Frame) filter() store.Filter {
	if f.Filter == nil {
		return store.Filter{}
	}
	return *f.Filter
}
