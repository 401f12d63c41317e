package net

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"PaintBoard/internal/state"
	"PaintBoard/internal/store"
)

// Remote is a Backend served by a Server on another machine.
type Remote struct {
	conn *websocket.Conn
	addr string

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan Frame
	subs    map[uint64]func(state.Message)
	err     error
	done    chan struct{}
}

var _ store.Backend = (*Remote)(nil)

// Dial connects to a board. target is a share link, host:port or ws URL.
func Dial(ctx context.Context, target string) (*Remote, error) {
	url, err := WebSocketURL(target)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	r := &Remote{
		conn:    conn,
		addr:    url,
		pending: make(map[uint64]chan Frame),
		subs:    make(map[uint64]func(state.Message)),
		done:    make(chan struct{}),
	}
	go r.readLoop()
	glog.Infof("[ws] connected to %s as %s", url, conn.LocalAddr())
	return r, nil
}

func (r *Remote) LocalAddr() string { return r.conn.LocalAddr().String() }

// Done is closed once the connection is gone.
func (r *Remote) Done() <-chan struct{} { return r.done }

func (r *Remote) readLoop() {
	var err error
	for {
		var f Frame
		if err = r.conn.ReadJSON(&f); err != nil {
			break
		}
		switch f.Op {
		case opEvent:
			r.mu.Lock()
			fn := r.subs[f.Sub]
			r.mu.Unlock()
			if fn != nil && f.Message != nil {
				fn(*f.Message)
			}
		default:
			r.mu.Lock()
			ch := r.pending[f.ID]
			delete(r.pending, f.ID)
			r.mu.Unlock()
			if ch != nil {
				ch <- f
			} else if f.Op == opError {
				glog.Warningf("[ws] server error: %s", f.Error)
			}
		}
	}
	r.shutdown(err)
}

func (r *Remote) shutdown(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if err == nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		err = store.ErrClosed
	}
	r.err = err
	r.pending = make(map[uint64]chan Frame)
	close(r.done)
	glog.Infof("[ws] disconnected from %s: %v", r.addr, err)
}

func (r *Remote) write(f Frame) error {
	r.mu.Lock()
	err := r.err
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return r.conn.WriteJSON(f)
}

func (r *Remote) call(ctx context.Context, f Frame) (Frame, error) {
	ch := make(chan Frame, 1)
	r.mu.Lock()
	if r.err != nil {
		err := r.err
		r.mu.Unlock()
		return Frame{}, err
	}
	r.nextID++
	f.ID = r.nextID
	r.pending[f.ID] = ch
	r.mu.Unlock()

	forget := func() {
		r.mu.Lock()
		delete(r.pending, f.ID)
		r.mu.Unlock()
	}

	if err := r.write(f); err != nil {
		forget()
		return Frame{}, err
	}

	select {
	case resp := <-ch:
		if resp.Op == opError {
			return resp, fmt.Errorf("%w: %s", ErrRemote, resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		forget()
		return Frame{}, ctx.Err()
	case <-r.done:
		r.mu.Lock()
		err := r.err
		r.mu.Unlock()
		return Frame{}, err
	}
}

// Publish does not wait for the server.
func (r *Remote) Publish(ctx context.Context, msg state.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.write(Frame{Op: opPublish, Message: &msg})
}

func (r *Remote) Subscribe(ctx context.Context, filter store.Filter, fn func(state.Message)) (store.Subscription, error) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	// registered first: events may overtake the response
	r.subs[id] = fn
	r.mu.Unlock()

	if _, err := r.call(ctx, Frame{Op: opSubscribe, Sub: id, Filter: &filter}); err != nil {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
		return nil, err
	}
	return &remoteSub{remote: r, id: id}, nil
}

type remoteSub struct {
	remote *Remote
	id     uint64
}

func (s *remoteSub) Unsubscribe() error {
	r := s.remote
	r.mu.Lock()
	_, ok := r.subs[s.id]
	delete(r.subs, s.id)
	r.mu.Unlock()
	if !ok {
		return store.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	_, err := r.call(ctx, Frame{Op: opUnsubscribe, Sub: s.id})
	if errors.Is(err, store.ErrClosed) {
		return nil
	}
	return err
}

func (r *Remote) CreateDocument(ctx context.Context, body state.Message) (string, error) {
	resp, err := r.call(ctx, Frame{Op: opCreate, Message: &body})
	return resp.DocID, err
}

func (r *Remote) Search(ctx context.Context, q store.Query, s store.Sort, p store.Page) (store.SearchResult, error) {
	resp, err := r.call(ctx, Frame{Op: opSearch, Filter: &q, Sort: &s, Page: &p})
	if err != nil {
		return store.SearchResult{}, err
	}
	if resp.Result == nil {
		return store.SearchResult{}, nil
	}
	return *resp.Result, nil
}

func (r *Remote) Count(ctx context.Context, q store.Query) (int, error) {
	resp, err := r.call(ctx, Frame{Op: opCount, Filter: &q})
	return resp.Count, err
}

func (r *Remote) DeleteDocuments(ctx context.Context, q store.Query) error {
	_, err := r.call(ctx, Frame{Op: opDelete, Filter: &q})
	return err
}

func (r *Remote) Close() error {
	r.writeMu.Lock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = r.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	r.writeMu.Unlock()
	err := r.conn.Close()
	r.shutdown(store.ErrClosed)
	return err
}
