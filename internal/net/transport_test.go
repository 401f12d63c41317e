package net

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"PaintBoard/internal/channel"
	"PaintBoard/internal/state"
	"PaintBoard/internal/store"
)

func startServer(t *testing.T) (*store.Memory, *Server, string) {
	t.Helper()
	backend := store.NewMemory()
	srv := NewServer(backend)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		backend.Close()
	})
	return backend, srv, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *Remote {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r, err := Dial(ctx, url)
	assert.Equal(t, nil, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRemoteDocuments(t *testing.T) {
	ctx := context.Background()
	backend, _, url := startServer(t)
	r := dial(t, url)

	for _, ts := range []int64{3, 1, 2} {
		id, err := r.CreateDocument(ctx, state.BatchMessage(state.Batch{Emitter: "e", Timestamp: ts}))
		assert.Equal(t, nil, err)
		assert.NotEqual(t, "", id)
	}

	n, err := r.Count(ctx, store.Query{Type: state.TypeLines})
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, n)

	res, err := r.Search(ctx, store.Query{Type: state.TypeLines}, store.ByTimestamp, store.Page{From: 1, Size: 5})
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, len(res.Documents))
	assert.Equal(t, int64(2), res.Documents[0].Body.Timestamp)
	assert.Equal(t, int64(3), res.Documents[1].Body.Timestamp)

	assert.Equal(t, nil, r.DeleteDocuments(ctx, store.Query{}))
	n, err = backend.Count(ctx, store.Query{})
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, n)
}

func TestRemotePublishSubscribe(t *testing.T) {
	ctx := context.Background()
	backend, srv, url := startServer(t)
	a := dial(t, url)
	b := dial(t, url)

	var mu sync.Mutex
	var got []state.Message
	sub, err := b.Subscribe(ctx, store.Filter{Type: state.TypeLine}, func(m state.Message) {
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, backend.Subscribers())
	eventually(t, func() bool { return srv.Peers().Len() == 2 })

	assert.Equal(t, nil, a.Publish(ctx, state.ClearMessage("a")))
	assert.Equal(t, nil, a.Publish(ctx, state.LineMessage("a", state.Segment{X: 1})))
	assert.Equal(t, nil, a.Publish(ctx, state.LineMessage("a", state.Segment{X: 2})))

	eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	})
	mu.Lock()
	first, _ := got[0].Segment()
	second, _ := got[1].Segment()
	mu.Unlock()
	assert.Equal(t, float64(1), first.X)
	assert.Equal(t, float64(2), second.X)

	assert.Equal(t, nil, sub.Unsubscribe())
	eventually(t, func() bool { return backend.Subscribers() == 0 })
	assert.Equal(t, true, errors.Is(sub.Unsubscribe(), store.ErrNotFound))
}

func TestRemoteCallsFailAfterClose(t *testing.T) {
	_, srv, url := startServer(t)
	r := dial(t, url)
	eventually(t, func() bool { return srv.Peers().Len() == 1 })

	assert.Equal(t, nil, r.Close())
	<-r.Done()
	_, err := r.Count(context.Background(), store.Query{})
	assert.Equal(t, true, errors.Is(err, store.ErrClosed))
	eventually(t, func() bool { return srv.Peers().Len() == 0 })
}

func TestChannelsSyncThroughServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	backend, _, url := startServer(t)

	sinkA, sinkB := &channel.Recorder{}, &channel.Recorder{}
	a := channel.New(dial(t, url), sinkA, channel.DefaultConfig())
	b := channel.New(dial(t, url), sinkB, channel.DefaultConfig())
	assert.Equal(t, nil, a.Start(ctx))
	assert.Equal(t, nil, b.Start(ctx))
	eventually(t, func() bool { return backend.Subscribers() == 4 })

	a.Draw(ctx, state.Segment{X: 1, Y: 1}, state.DefaultStyle())
	eventually(t, func() bool { return len(sinkB.Segments()) == 1 })
	assert.Equal(t, sinkA.Segments(), sinkB.Segments())

	assert.Equal(t, nil, a.Flush(ctx))
	late := &channel.Recorder{}
	n, err := channel.New(dial(t, url), late, channel.DefaultConfig()).Replay(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, sinkA.Segments(), late.Segments())

	assert.Equal(t, nil, b.Clear(ctx))
	eventually(t, func() bool { return sinkA.Clears() == 1 })
	count, _ := backend.Count(ctx, store.Query{})
	assert.Equal(t, 0, count)
}

func TestHealthz(t *testing.T) {
	_, srv, _ := startServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	assert.Equal(t, nil, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketURL(t *testing.T) {
	for in, want := range map[string]string{
		"paintboard://10.0.0.2:8888": "ws://10.0.0.2:8888/ws",
		"paintboard://10.0.0.2:9/":   "ws://10.0.0.2:9/ws",
		"10.0.0.2":                   "ws://10.0.0.2:8888/ws",
		"ws://example.org:1":         "ws://example.org:1/ws",
		"ws://example.org:1/board":   "ws://example.org:1/board",
	} {
		got, err := WebSocketURL(in)
		assert.Equal(t, nil, err)
		assert.Equal(t, want, got)
	}
	_, err := WebSocketURL("")
	assert.NotEqual(t, nil, err)

	assert.Equal(t, "paintboard://10.0.0.2:8888", ShareLink("10.0.0.2", 8888))
	assert.Equal(t, true, IsShareLink(ShareLink("h", 1)))
}
