package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"PaintBoard/internal/state"
	"PaintBoard/internal/store"
)

func seedBatches(t *testing.T, b store.Documents, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		msg := state.BatchMessage(state.Batch{
			Emitter:   "seed",
			Timestamp: int64(1000 + i),
			Segments:  []state.Segment{{X: float64(i)}},
		})
		_, err := b.CreateDocument(context.Background(), msg)
		assert.Equal(t, nil, err)
	}
}

func TestReplayPaginates(t *testing.T) {
	b := newFake()
	seedBatches(t, b, 120)
	sink := &Recorder{}
	c := New(b, sink, testConfig())

	n, err := c.LoadBatches(context.Background(), store.Query{Type: state.TypeLines}, 0, 50)
	assert.Equal(t, nil, err)
	assert.Equal(t, 120, n)
	assert.Equal(t, []int{0, 50, 100}, b.offsets())

	segs := sink.Segments()
	assert.Equal(t, 120, len(segs))
	for i, s := range segs {
		if s.X != float64(i) {
			t.Fatalf("segment %d out of order: %v", i, s)
		}
	}
}

func TestReplayStopsAtCap(t *testing.T) {
	b := newFake()
	seedBatches(t, b, 120)
	cfg := testConfig()
	cfg.ReplayCap = 75
	sink := &Recorder{}
	c := New(b, sink, cfg)

	n, err := c.LoadBatches(context.Background(), store.Query{Type: state.TypeLines}, 0, 50)
	assert.Equal(t, nil, err)
	assert.Equal(t, 75, n)
	assert.Equal(t, []store.Page{{From: 0, Size: 50}, {From: 50, Size: 25}}, b.pages)
}

func TestReplayOrdersByTimestamp(t *testing.T) {
	b := newFake()
	b.reverse = true
	ctx := context.Background()
	// written newest first
	for _, ts := range []int64{20, 10} {
		_, err := b.CreateDocument(ctx, state.BatchMessage(state.Batch{
			Emitter:   "e",
			Timestamp: ts,
			Segments:  []state.Segment{{X: float64(ts)}, {X: float64(ts) + 1}},
		}))
		assert.Equal(t, nil, err)
	}
	sink := &Recorder{}

	_, err := New(b, sink, testConfig()).Replay(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, []state.Segment{{X: 10}, {X: 11}, {X: 20}, {X: 21}}, sink.Segments())
}

func TestReplayWithNothingPersistedSkipsSearch(t *testing.T) {
	b := newFake()
	n, err := New(b, &Recorder{}, testConfig()).Replay(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, len(b.offsets()))
}

func TestReplayEndsOnQueryFailure(t *testing.T) {
	b := newFake()
	seedBatches(t, b, 10)
	b.searchErr = errBoom
	sink := &Recorder{}

	n, err := New(b, sink, testConfig()).Replay(context.Background())
	var perr *PersistenceError
	assert.Equal(t, true, errors.As(err, &perr))
	assert.Equal(t, "search", perr.Op)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, len(b.offsets()))
	assert.Equal(t, 0, len(sink.Segments()))
}

func TestReplayDiscardsPageOvertakenByClear(t *testing.T) {
	b := newFake()
	seedBatches(t, b, 10)
	sink := &Recorder{}
	c := New(b, sink, testConfig())
	b.onSearch = func() { c.Handle(state.ClearMessage("peer")) }

	n, err := c.Replay(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, len(sink.Segments()))
	assert.Equal(t, 1, sink.Clears())
}

// hookSink runs hook once, after its first draw.
type hookSink struct {
	Recorder
	hook func()
}

func (h *hookSink) Draw(seg state.Segment) {
	h.Recorder.Draw(seg)
	if fn := h.hook; fn != nil {
		h.hook = nil
		fn()
	}
}

func TestReplayStopsDrawingPageOnClear(t *testing.T) {
	b := newFake()
	seedBatches(t, b, 5)
	sink := &hookSink{}
	c := New(b, sink, testConfig())
	sink.hook = func() { c.Handle(state.ClearMessage("peer")) }

	n, err := c.Replay(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, n)
	// nothing from before the clear is drawn after it
	assert.Equal(t, 0, len(sink.Segments()))
	assert.Equal(t, 1, sink.Clears())
	assert.Equal(t, []int{0}, b.offsets())
}

func TestReplayStopsWhenClosed(t *testing.T) {
	b := newFake()
	seedBatches(t, b, 120)
	sink := &Recorder{}
	c := New(b, sink, testConfig())
	b.onSearch = func() { _ = c.Close() }

	n, err := c.LoadBatches(context.Background(), store.Query{Type: state.TypeLines}, 0, 50)
	assert.Equal(t, nil, err)
	// the page in flight completes, no further page is requested
	assert.Equal(t, 50, n)
	assert.Equal(t, []int{0}, b.offsets())
}

func TestReplaySkipsMalformedBatches(t *testing.T) {
	b := newFake()
	ctx := context.Background()
	_, err := b.CreateDocument(ctx, state.Message{Type: state.TypeLines, Emitter: "e", Timestamp: 1, Lines: "{"})
	assert.Equal(t, nil, err)
	seedBatches(t, b, 1)
	sink := &Recorder{}

	n, err := New(b, sink, testConfig()).Replay(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, len(sink.Segments()))
}
