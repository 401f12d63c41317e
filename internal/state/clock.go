package state

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// NewEmitterID returns a random per-session id. It tags outbound messages
// and is never used for authorization.
func NewEmitterID() string {
	return uuid.NewString()
}

// Epoch counts clears. Anything started under an older epoch is stale.
type Epoch struct {
	n atomic.Uint64
}

func (e *Epoch) Current() uint64 {
	return e.n.Load()
}

// Advance bumps the epoch and returns the new value.
func (e *Epoch) Advance() uint64 {
	return e.n.Add(1)
}

// Stale reports whether work tagged with epoch was overtaken by a clear.
func (e *Epoch) Stale(epoch uint64) bool {
	return e.n.Load() != epoch
}
