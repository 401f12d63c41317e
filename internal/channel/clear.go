package channel

import (
	"context"

	"github.com/golang/glog"

	"PaintBoard/internal/state"
	"PaintBoard/internal/store"
)

type ClearState int

const (
	Idle ClearState = iota
	Clearing
)

func (s ClearState) String() string {
	if s == Clearing {
		return "clearing"
	}
	return "idle"
}

func (c *Channel) ClearState() ClearState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearState
}

// Clear erases the persisted history, tells every peer and erases the local
// surface. If the delete fails nothing else happens.
func (c *Channel) Clear(ctx context.Context) error {
	c.mu.Lock()
	if c.clearState == Clearing {
		c.mu.Unlock()
		return ErrClearInProgress
	}
	c.clearState = Clearing
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.clearState = Idle
		c.mu.Unlock()
	}()

	if err := c.backend.DeleteDocuments(ctx, store.Query{}); err != nil {
		glog.Errorf("[clear] delete failed, canvas left untouched: %v", err)
		return &PersistenceError{Op: "delete", Err: err}
	}

	c.dropPending()
	c.epoch.Advance()

	if err := c.backend.Publish(ctx, state.ClearMessage(c.emitter)); err != nil {
		// History is already gone, so the local surface is erased regardless.
		glog.Warningf("[clear] peers not notified: %v", err)
	}
	c.sink.Clear()
	glog.Infof("[clear] canvas cleared by %s", c.emitter)
	return nil
}

// cleared handles a clear event from any emitter, this one included.
func (c *Channel) cleared(emitter string) {
	c.dropPending()
	c.epoch.Advance()
	c.sink.Clear()
	glog.V(2).Infof("[clear] clear event from %s", emitter)
}

// dropPending forgets segments drawn before a clear so they are not
// persisted after it.
func (c *Channel) dropPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}
