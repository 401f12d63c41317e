package channel

import (
	"sync"

	"PaintBoard/internal/state"
)

// Recorder is a Sink that keeps what it is asked to draw. A clear forgets
// everything drawn so far.
type Recorder struct {
	mu       sync.Mutex
	segments []state.Segment
	clears   int
}

var _ Sink = (*Recorder)(nil)

func (r *Recorder) Draw(seg state.Segment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append(r.segments, seg)
}

func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = nil
	r.clears++
}

func (r *Recorder) Segments() []state.Segment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]state.Segment, len(r.segments))
	copy(out, r.segments)
	return out
}

func (r *Recorder) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}
