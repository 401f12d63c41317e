package input

import (
	"sync"

	"PaintBoard/internal/state"
)

// Touch tracks every finger independently by contact id.
type Touch struct {
	surface func() Surface
	events  Events

	mu    sync.Mutex
	moves map[int]point
}

func NewTouch(surface func() Surface, events Events) *Touch {
	return &Touch{surface: surface, events: events}
}

func (t *Touch) Down(contacts ...Contact) {
	t.events.start()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.moves == nil {
		t.moves = make(map[int]point)
	}
	s := t.surface()
	for _, c := range contacts {
		x, y := s.Translate(c.X, c.Y)
		t.moves[c.ID] = point{x, y}
	}
}

func (t *Touch) Move(contacts ...Contact) {
	t.mu.Lock()
	if t.moves == nil {
		t.mu.Unlock()
		return
	}
	s := t.surface()
	segs := make([]state.Segment, 0, len(contacts))
	for _, c := range contacts {
		last, ok := t.moves[c.ID]
		if !ok {
			continue
		}
		x, y := s.Translate(c.X, c.Y)
		segs = append(segs, state.Segment{X: x, Y: y, PX: last.x, PY: last.y})
		t.moves[c.ID] = point{x, y}
	}
	t.mu.Unlock()

	for _, seg := range segs {
		t.events.segment(seg)
	}
}

func (t *Touch) Up(contacts ...Contact) {
	t.events.stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.moves == nil {
		return
	}
	for _, c := range contacts {
		delete(t.moves, c.ID)
	}
	if len(t.moves) == 0 {
		t.moves = nil
	}
}

// Active returns the number of tracked contacts.
func (t *Touch) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.moves)
}
