package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"PaintBoard/internal/state"
	"PaintBoard/internal/store"
)

func watchClears(t *testing.T, b store.Bus) *[]state.Message {
	t.Helper()
	var got []state.Message
	_, err := b.Subscribe(context.Background(), store.Filter{Type: state.TypeClear}, func(m state.Message) {
		got = append(got, m)
	})
	assert.Equal(t, nil, err)
	return &got
}

func TestClearFailsClosed(t *testing.T) {
	ctx := context.Background()
	b := newFake()
	seedBatches(t, b, 3)
	b.deleteErr = errBoom
	sink := &Recorder{}
	c := New(b, sink, testConfig())
	clears := watchClears(t, b)
	c.Draw(ctx, state.Segment{X: 1}, state.DefaultStyle())
	epoch := c.Epoch()

	err := c.Clear(ctx)
	var perr *PersistenceError
	assert.Equal(t, true, errors.As(err, &perr))
	assert.Equal(t, "delete", perr.Op)

	assert.Equal(t, 0, len(*clears))
	assert.Equal(t, 0, sink.Clears())
	assert.Equal(t, 1, len(sink.Segments()))
	assert.Equal(t, 1, c.Pending())
	assert.Equal(t, epoch, c.Epoch())
	assert.Equal(t, Idle, c.ClearState())

	n, _ := b.Count(ctx, store.Query{})
	assert.Equal(t, 3, n)
}

func TestClearDeletesNotifiesAndErases(t *testing.T) {
	ctx := context.Background()
	b := newFake()
	seedBatches(t, b, 3)
	sink := &Recorder{}
	c := New(b, sink, testConfig())
	clears := watchClears(t, b)
	c.Draw(ctx, state.Segment{X: 1}, state.DefaultStyle())
	epoch := c.Epoch()

	assert.Equal(t, nil, c.Clear(ctx))

	n, _ := b.Count(ctx, store.Query{})
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, len(*clears))
	assert.Equal(t, c.Emitter(), (*clears)[0].Emitter)
	assert.Equal(t, 1, sink.Clears())
	assert.Equal(t, 0, len(sink.Segments()))
	// strokes drawn before the clear never reach the store afterwards
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, true, c.Epoch() > epoch)
	assert.Equal(t, Idle, c.ClearState())
}

func TestClearStillErasesWhenNotifyFails(t *testing.T) {
	ctx := context.Background()
	b := newFake()
	seedBatches(t, b, 2)
	sink := &Recorder{}
	c := New(b, sink, testConfig())
	c.Draw(ctx, state.Segment{X: 1}, state.DefaultStyle())
	epoch := c.Epoch()
	b.publishErr = errBoom

	assert.Equal(t, nil, c.Clear(ctx))
	assert.Equal(t, 1, sink.Clears())
	assert.Equal(t, 0, len(sink.Segments()))
	assert.Equal(t, true, c.Epoch() > epoch)
	assert.Equal(t, 0, c.Pending())
	n, _ := b.Count(ctx, store.Query{})
	assert.Equal(t, 0, n)
}

func TestClearEventErasesEverySubscriberOnce(t *testing.T) {
	ctx := context.Background()
	b := store.NewMemory()

	origin := New(b, &Recorder{}, testConfig())
	peerSinks := []*Recorder{{}, {}}
	for _, s := range peerSinks {
		p := New(b, s, testConfig())
		assert.Equal(t, nil, p.Start(ctx))
		defer p.Close()
	}

	assert.Equal(t, nil, origin.Clear(ctx))
	for _, s := range peerSinks {
		assert.Equal(t, 1, s.Clears())
	}

	// a started originator erases once itself and once more on its own echo
	originSink := &Recorder{}
	started := New(b, originSink, testConfig())
	assert.Equal(t, nil, started.Start(ctx))
	defer started.Close()
	assert.Equal(t, nil, started.Clear(ctx))
	assert.Equal(t, 2, originSink.Clears())
	for _, s := range peerSinks {
		assert.Equal(t, 2, s.Clears())
	}

	// a clear published by any emitter, this one included
	self := &Recorder{}
	c := New(b, self, testConfig())
	c.Handle(state.ClearMessage(c.Emitter()))
	assert.Equal(t, 1, self.Clears())
}

func TestClearRejectsOverlappingClear(t *testing.T) {
	ctx := context.Background()
	b := newFake()
	b.deleteGate = make(chan struct{})
	c := New(b, &Recorder{}, testConfig())

	done := make(chan error, 1)
	go func() { done <- c.Clear(ctx) }()
	eventually(t, func() bool { return c.ClearState() == Clearing })

	assert.Equal(t, ErrClearInProgress, c.Clear(ctx))

	close(b.deleteGate)
	assert.Equal(t, nil, <-done)
	assert.Equal(t, Idle, c.ClearState())
}

func TestFlushRetryAbandonedAfterClear(t *testing.T) {
	b := newFake()
	b.createErrs = []error{errBoom}
	c := New(b, &Recorder{}, testConfig())
	// the clear lands between the failed attempt and the retry
	c.backend = &clearOnFailure{fakeBackend: b, c: c}
	c.Enqueue(state.Segment{X: 1})

	assert.Equal(t, nil, c.Flush(context.Background()))
	assert.Equal(t, 1, b.createCalls())
	assert.Equal(t, 0, len(persisted(t, b)))
}

// clearOnFailure delivers a clear event right after a failed write.
type clearOnFailure struct {
	*fakeBackend
	c *Channel
}

func (h *clearOnFailure) CreateDocument(ctx context.Context, body state.Message) (string, error) {
	id, err := h.fakeBackend.CreateDocument(ctx, body)
	if err != nil {
		h.c.Handle(state.ClearMessage("peer"))
	}
	return id, err
}
