// Package store provides the document store and pub/sub bus the paint
// channel synchronizes through.
package store

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/oklog/ulid/v2"

	"PaintBoard/internal/state"
)

var (
	ErrClosed   = errors.New("store: closed")
	ErrNotFound = errors.New("store: no such subscription")
)

// Filter matches messages by equality. Empty fields match anything.
type Filter struct {
	Type    state.MessageType `json:"type,omitempty"`
	Emitter string            `json:"emitter,omitempty"`
}

func (f Filter) Match(m state.Message) bool {
	if f.Type != "" && f.Type != m.Type {
		return false
	}
	if f.Emitter != "" && f.Emitter != m.Emitter {
		return false
	}
	return true
}

// Query selects documents. The zero Query selects the whole collection.
type Query = Filter

type Sort struct {
	Field string `json:"field,omitempty"`
	Desc  bool   `json:"desc,omitempty"`
}

// ByTimestamp is the replay order.
var ByTimestamp = Sort{Field: "timestamp"}

type Page struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Document struct {
	ID   string        `json:"id"`
	Body state.Message `json:"body"`
}

type SearchResult struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

type Subscription interface {
	Unsubscribe() error
}

type Bus interface {
	// Publish is fire-and-forget broadcast to matching subscribers.
	Publish(ctx context.Context, msg state.Message) error
	Subscribe(ctx context.Context, f Filter, fn func(state.Message)) (Subscription, error)
}

type Documents interface {
	CreateDocument(ctx context.Context, body state.Message) (string, error)
	Search(ctx context.Context, q Query, s Sort, p Page) (SearchResult, error)
	Count(ctx context.Context, q Query) (int, error)
	DeleteDocuments(ctx context.Context, q Query) error
}

type Backend interface {
	Bus
	Documents
	io.Closer
}

func newDocumentID() string {
	return ulid.Make().String()
}

// sortDocuments orders by timestamp and falls back to the time ordered id so
// equal timestamps keep insertion order.
func sortDocuments(docs []Document, s Sort) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if a.Body.Timestamp != b.Body.Timestamp {
			if s.Desc {
				return a.Body.Timestamp > b.Body.Timestamp
			}
			return a.Body.Timestamp < b.Body.Timestamp
		}
		if s.Desc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
}

func window(n int, p Page) (int, int) {
	from := max(p.From, 0)
	if from > n {
		from = n
	}
	end := n
	if p.Size > 0 && from+p.Size < n {
		end = from + p.Size
	}
	return from, end
}
