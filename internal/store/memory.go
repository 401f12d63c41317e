package store

import (
	"context"
	"sync"

	"PaintBoard/internal/state"
)

// Memory keeps documents in process. It is the backend of `host --memory`
// and of the tests.
type Memory struct {
	*Hub

	mu     sync.RWMutex
	docs   []Document
	closed bool
}

var _ Backend = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{Hub: NewHub()}
}

func (m *Memory) CreateDocument(ctx context.Context, body state.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}
	doc := Document{ID: newDocumentID(), Body: body}
	m.docs = append(m.docs, doc)
	return doc.ID, nil
}

func (m *Memory) matching(q Query) []Document {
	out := make([]Document, 0, len(m.docs))
	for _, d := range m.docs {
		if q.Match(d.Body) {
			out = append(out, d)
		}
	}
	return out
}

func (m *Memory) Search(ctx context.Context, q Query, s Sort, p Page) (SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return SearchResult{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return SearchResult{}, ErrClosed
	}
	docs := m.matching(q)
	sortDocuments(docs, s)
	from, end := window(len(docs), p)
	return SearchResult{Documents: docs[from:end], Total: len(docs)}, nil
}

func (m *Memory) Count(ctx context.Context, q Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	return len(m.matching(q)), nil
}

func (m *Memory) DeleteDocuments(ctx context.Context, q Query) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	kept := m.docs[:0]
	for _, d := range m.docs {
		if !q.Match(d.Body) {
			kept = append(kept, d)
		}
	}
	m.docs = kept
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return m.Hub.Close()
}
