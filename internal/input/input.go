// Package input turns pointer and touch events into line segments.
package input

import "PaintBoard/internal/state"

// Contact is one pointer or finger position in device pixels.
type Contact struct {
	ID int
	X  float64
	Y  float64
}

// Events receives what an adapter produces. Nil callbacks are skipped.
type Events struct {
	OnStartMove func()
	OnSegment   func(state.Segment)
	OnStopMove  func()
}

func (e Events) start() {
	if e.OnStartMove != nil {
		e.OnStartMove()
	}
}

func (e Events) segment(s state.Segment) {
	if e.OnSegment != nil {
		e.OnSegment(s)
	}
}

func (e Events) stop() {
	if e.OnStopMove != nil {
		e.OnStopMove()
	}
}

// Adapter is implemented per platform. An adapter never fails; bad or
// unexpected input simply produces no events.
type Adapter interface {
	Down(contacts ...Contact)
	Move(contacts ...Contact)
	Up(contacts ...Contact)
}

// Surface maps device coordinates into the canvas's own coordinate space.
// Width and Height are the backing-store size, ClientWidth and ClientHeight
// the displayed size.
type Surface struct {
	OriginX      float64
	OriginY      float64
	Width        float64
	Height       float64
	ClientWidth  float64
	ClientHeight float64
}

func (s Surface) Translate(x, y float64) (float64, float64) {
	return (x - s.OriginX) * ratio(s.Width, s.ClientWidth),
		(y - s.OriginY) * ratio(s.Height, s.ClientHeight)
}

func ratio(backing, client float64) float64 {
	if backing <= 0 || client <= 0 {
		return 1
	}
	return backing / client
}

type Kind int

const (
	KindPointer Kind = iota
	KindTouch
)

// New picks the implementation for the platform at composition time.
// surface is called on every event so resizes are picked up.
func New(kind Kind, surface func() Surface, events Events) Adapter {
	if kind == KindTouch {
		return NewTouch(surface, events)
	}
	return NewPointer(surface, events)
}
