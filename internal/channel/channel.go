// Package channel bridges local drawing to remote peers and to durable
// storage.
//
// Every locally drawn segment is published live right away and also queued.
// Once per flush interval the queue is persisted as one batch document. Late
// joiners rebuild the canvas by replaying those batches in timestamp order;
// live messages are never stored, so a batch must capture every segment
// that was also sent live.
package channel

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"PaintBoard/internal/state"
	"PaintBoard/internal/store"
)

// Sink is the rendering surface. Both calls are expected to succeed and may
// be invoked from any goroutine.
type Sink interface {
	Draw(seg state.Segment)
	Clear()
}

// Controls is the UI state read when a local segment is created.
type Controls interface {
	Style() state.Style
}

type Config struct {
	FlushInterval time.Duration
	// FlushRetries extra attempts are made before a batch is dropped.
	FlushRetries int
	RetryBackoff time.Duration
	PageSize     int
	// ReplayCap bounds how many batches a replay reads.
	ReplayCap int
}

func DefaultConfig() Config {
	return Config{
		FlushInterval: time.Second,
		FlushRetries:  2,
		RetryBackoff:  250 * time.Millisecond,
		PageSize:      50,
		ReplayCap:     10000,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.FlushInterval <= 0 {
		c.FlushInterval = d.FlushInterval
	}
	if c.FlushRetries < 0 {
		c.FlushRetries = 0
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.ReplayCap <= 0 {
		c.ReplayCap = d.ReplayCap
	}
	return c
}

type Channel struct {
	backend store.Backend
	sink    Sink
	cfg     Config
	emitter string
	epoch   state.Epoch

	now       func() time.Time
	newTicker func(time.Duration) (<-chan time.Time, func())

	mu         sync.Mutex
	pending    []state.Segment
	flushing   bool
	clearState ClearState
	closed     bool
	subs       []store.Subscription

	wg sync.WaitGroup
}

func New(backend store.Backend, sink Sink, cfg Config) *Channel {
	return &Channel{
		backend: backend,
		sink:    sink,
		cfg:     cfg.normalized(),
		emitter: state.NewEmitterID(),
		now:     time.Now,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

func (c *Channel) Emitter() string { return c.emitter }

func (c *Channel) Epoch() uint64 { return c.epoch.Current() }

// Send publishes seg to every subscriber. It is not persisted.
func (c *Channel) Send(ctx context.Context, seg state.Segment) error {
	if err := c.backend.Publish(ctx, state.LineMessage(c.emitter, seg)); err != nil {
		glog.Warningf("[channel] dropping live segment: %v", err)
		return &TransportError{Op: "publish", Err: err}
	}
	return nil
}

// Enqueue adds seg to the batch being built.
func (c *Channel) Enqueue(seg state.Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, seg)
}

func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Draw is the local ingestion path: stamp with the style snapshot, publish
// live, render, and queue for the next flush.
func (c *Channel) Draw(ctx context.Context, seg state.Segment, style state.Style) {
	seg = style.Apply(seg)
	_ = c.Send(ctx, seg)
	c.sink.Draw(seg)
	c.Enqueue(seg)
}

// Flush persists the pending segments as one batch. It is a no-op when
// nothing is pending or another flush is still in flight; in the latter
// case the segments go out with the next flush.
func (c *Channel) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.flushing || len(c.pending) == 0 {
		c.mu.Unlock()
		return nil
	}
	batch := state.NewBatch(c.emitter, c.now(), c.pending)
	c.pending = nil
	c.flushing = true
	epoch := c.epoch.Current()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.flushing = false
		c.mu.Unlock()
	}()

	return c.persist(ctx, batch, epoch)
}

func (c *Channel) persist(ctx context.Context, batch state.Batch, epoch uint64) error {
	msg := state.BatchMessage(batch)

	for attempt := 0; ; attempt++ {
		id, err := c.backend.CreateDocument(ctx, msg)
		if err == nil {
			glog.V(2).Infof("[channel] persisted batch %s (%d segments)", id, len(batch.Segments))
			return nil
		}
		if attempt >= c.cfg.FlushRetries {
			glog.Errorf("[channel] dropped batch of %d segments: %v", len(batch.Segments), err)
			return &PersistenceError{Op: "create", Err: err}
		}
		glog.Warningf("[channel] persist attempt %d failed: %v", attempt+1, err)

		select {
		case <-ctx.Done():
			return &PersistenceError{Op: "create", Err: ctx.Err()}
		case <-time.After(c.cfg.RetryBackoff):
		}
		if c.epoch.Stale(epoch) {
			glog.Infof("[channel] dropping batch of %d segments: canvas was cleared", len(batch.Segments))
			return nil
		}
	}
}

// Handle dispatches an inbound bus message.
func (c *Channel) Handle(msg state.Message) {
	switch msg.Type {
	case state.TypeLine:
		if msg.Emitter == c.emitter {
			return
		}
		seg, err := msg.Segment()
		if err != nil {
			glog.Warningf("[channel] ignoring line from %s: %v", msg.Emitter, err)
			return
		}
		c.sink.Draw(seg)
	case state.TypeClear:
		c.cleared(msg.Emitter)
	default:
		// batches only travel through replay
		glog.V(2).Infof("[channel] ignoring %q message from %s", msg.Type, msg.Emitter)
	}
}

// Start subscribes to live lines and clear events.
func (c *Channel) Start(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}
	// Deliveries may arrive before Subscribe returns, so no lock is held here.
	subs := make([]store.Subscription, 0, 2)
	for _, t := range []state.MessageType{state.TypeLine, state.TypeClear} {
		sub, err := c.backend.Subscribe(ctx, store.Filter{Type: t}, c.Handle)
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return &TransportError{Op: "subscribe", Err: err}
		}
		subs = append(subs, sub)
	}

	c.mu.Lock()
	c.subs = append(c.subs, subs...)
	c.mu.Unlock()
	return nil
}

// Run subscribes, replays the persisted history and flushes on every tick
// until ctx is done. What is still pending is flushed once more on the way
// out.
func (c *Channel) Run(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, _ = c.Replay(ctx)
	}()

	tick, stop := c.newTicker(c.cfg.FlushInterval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			c.wg.Wait()
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := c.Flush(final); err != nil {
				glog.Errorf("[channel] final flush: %v", err)
			}
			return nil
		case <-tick:
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				// an in-flight batch survives shutdown
				_ = c.Flush(context.WithoutCancel(ctx))
			}()
		}
	}
}

// Close unsubscribes and stops any replay between pages.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, s := range subs {
		if err := s.Unsubscribe(); err != nil {
			glog.V(2).Infof("[channel] unsubscribe: %v", err)
		}
	}
	return nil
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
