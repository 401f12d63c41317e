package input

import (
	"sync"

	"PaintBoard/internal/state"
)

type point struct{ x, y float64 }

// Pointer tracks a single mouse or pen. Contact ids are ignored.
type Pointer struct {
	surface func() Surface
	events  Events

	mu     sync.Mutex
	active bool
	last   point
}

func NewPointer(surface func() Surface, events Events) *Pointer {
	return &Pointer{surface: surface, events: events}
}

func (p *Pointer) translate(c Contact) point {
	x, y := p.surface().Translate(c.X, c.Y)
	return point{x, y}
}

func (p *Pointer) Down(contacts ...Contact) {
	if len(contacts) == 0 {
		return
	}
	p.mu.Lock()
	p.active = true
	p.last = p.translate(contacts[0])
	p.mu.Unlock()
	p.events.start()
}

func (p *Pointer) Move(contacts ...Contact) {
	if len(contacts) == 0 {
		return
	}
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	pos := p.translate(contacts[0])
	seg := state.Segment{X: pos.x, Y: pos.y, PX: p.last.x, PY: p.last.y}
	p.last = pos
	p.mu.Unlock()

	p.events.segment(seg)
}

func (p *Pointer) Up(...Contact) {
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()
	p.events.stop()
}
