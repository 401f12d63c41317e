package net

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"PaintBoard/internal/state"
	"PaintBoard/internal/store"
)

const (
	writeWait  = 10 * time.Second
	outboxSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	// Boards are shared by link on the LAN; any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Peer is one connected client.
type Peer struct {
	conn *websocket.Conn
	addr string
	out  chan Frame
	done chan struct{}

	mu   sync.Mutex
	subs map[uint64]store.Subscription
}

// send queues f. A peer that cannot keep up loses the frame.
func (p *Peer) send(f Frame) {
	select {
	case <-p.done:
	case p.out <- f:
	default:
		glog.Warningf("[ws] outbox full for %s, dropping %s frame", p.addr, f.Op)
	}
}

func (p *Peer) writeLoop() {
	for {
		select {
		case <-p.done:
			return
		case f := <-p.out:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteJSON(f); err != nil {
				glog.Warningf("[ws] write to %s: %v", p.addr, err)
				_ = p.conn.Close()
				return
			}
		}
	}
}

// PeerManager is used by the HOST to track every connected client.
type PeerManager struct {
	peers map[string]*Peer
	mu    sync.RWMutex
}

func NewPeerManager() *PeerManager {
	return &PeerManager{peers: make(map[string]*Peer)}
}

func (pm *PeerManager) Add(p *Peer) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.peers[p.addr] = p
	glog.Infof("[ws] client connected from %s (%d online)", p.addr, len(pm.peers))
}

// Remove forgets p and drops its subscriptions.
func (pm *PeerManager) Remove(p *Peer) {
	pm.mu.Lock()
	delete(pm.peers, p.addr)
	n := len(pm.peers)
	pm.mu.Unlock()

	p.mu.Lock()
	subs := p.subs
	p.subs = nil
	p.mu.Unlock()
	for _, s := range subs {
		_ = s.Unsubscribe()
	}
	glog.Infof("[ws] client %s disconnected (%d online)", p.addr, n)
}

func (pm *PeerManager) Len() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.peers)
}

// Server exposes a Backend to remote clients over WebSocket.
type Server struct {
	backend store.Backend
	peers   *PeerManager
}

func NewServer(backend store.Backend) *Server {
	return &Server{backend: backend, peers: NewPeerManager()}
}

func (s *Server) Peers() *PeerManager { return s.peers }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	glog.Infof("[ws] backend listening on %s", ln.Addr())
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Warningf("[ws] upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	p := &Peer{
		conn: conn,
		addr: conn.RemoteAddr().String(),
		out:  make(chan Frame, outboxSize),
		done: make(chan struct{}),
		subs: make(map[uint64]store.Subscription),
	}
	s.peers.Add(p)
	go p.writeLoop()

	defer func() {
		close(p.done)
		s.peers.Remove(p)
		_ = conn.Close()
	}()

	ctx := r.Context()
	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				glog.V(2).Infof("[ws] read from %s: %v", p.addr, err)
			}
			return
		}
		s.dispatch(ctx, p, f)
	}
}

// dispatch handles one request. Requests from a peer are handled in the
// order they arrive.
func (s *Server) dispatch(ctx context.Context, p *Peer, f Frame) {
	reply := Frame{ID: f.ID, Op: opResult}
	var err error

	switch f.Op {
	case opPublish:
		if f.Message == nil {
			err = errors.New("publish: missing message")
			break
		}
		err = s.backend.Publish(ctx, *f.Message)
		if f.ID == 0 {
			if err != nil {
				glog.Warningf("[ws] publish from %s: %v", p.addr, err)
			}
			return
		}
	case opSubscribe:
		err = s.subscribe(ctx, p, f.Sub, f.filter())
		reply.Sub = f.Sub
	case opUnsubscribe:
		p.mu.Lock()
		sub, ok := p.subs[f.Sub]
		delete(p.subs, f.Sub)
		p.mu.Unlock()
		if !ok {
			err = store.ErrNotFound
		} else {
			err = sub.Unsubscribe()
		}
	case opCreate:
		if f.Message == nil {
			err = errors.New("create: missing document")
			break
		}
		reply.DocID, err = s.backend.CreateDocument(ctx, *f.Message)
	case opSearch:
		var res store.SearchResult
		var srt store.Sort
		var page store.Page
		if f.Sort != nil {
			srt = *f.Sort
		}
		if f.Page != nil {
			page = *f.Page
		}
		res, err = s.backend.Search(ctx, f.filter(), srt, page)
		reply.Result = &res
	case opCount:
		reply.Count, err = s.backend.Count(ctx, f.filter())
	case opDelete:
		err = s.backend.DeleteDocuments(ctx, f.filter())
	default:
		err = errors.New("unknown op " + f.Op)
	}

	if err != nil {
		reply = Frame{ID: f.ID, Op: opError, Error: err.Error()}
	}
	p.send(reply)
}

func (s *Server) subscribe(ctx context.Context, p *Peer, id uint64, filter store.Filter) error {
	if id == 0 {
		return errors.New("subscribe: missing subscription id")
	}
	sub, err := s.backend.Subscribe(ctx, filter, func(m state.Message) {
		msg := m
		p.send(Frame{Op: opEvent, Sub: id, Message: &msg})
	})
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.subs[id]; ok {
		_ = old.Unsubscribe()
	}
	p.subs[id] = sub
	return nil
}
