package state

import "time"

// DefaultWidth is used by renderers for segments that carry no width.
const DefaultWidth = 12

// Segment is one drawn line from (PX, PY) to (X, Y) in canvas coordinates.
// The short JSON names are what the browser paint client puts on the wire.
type Segment struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	PX    float64 `json:"px"`
	PY    float64 `json:"py"`
	Color string  `json:"c,omitempty"`
	Width float64 `json:"w,omitempty"`
}

// StrokeWidth returns the width to render with.
func (s Segment) StrokeWidth() float64 {
	if s.Width <= 0 {
		return DefaultWidth
	}
	return s.Width
}

type Mode string

const (
	ModeDraw  Mode = "draw"
	ModeErase Mode = "erase"
)

// Style is a snapshot of the drawing controls taken when a segment is created.
type Style struct {
	Color string
	Width float64
	Mode  Mode
}

// DefaultStyle matches the first swatch of the toolbar.
func DefaultStyle() Style {
	return Style{Color: "#000000", Width: DefaultWidth, Mode: ModeDraw}
}

// Apply stamps seg with the style. Segments that already carry a color came
// from a peer and are returned unchanged.
func (st Style) Apply(seg Segment) Segment {
	if seg.Color != "" {
		return seg
	}
	seg.Color = st.Color
	if st.Mode == ModeErase {
		seg.Color = "#ffffff"
	}
	if seg.Width == 0 {
		seg.Width = st.Width
	}
	return seg
}

// Batch is the unit of persistence: every segment an emitter drew during one
// flush interval, in draw order.
type Batch struct {
	Emitter   string
	Timestamp int64
	Segments  []Segment
}

// NewBatch copies segs so later changes to the caller's slice never reach a
// persisted batch.
func NewBatch(emitter string, at time.Time, segs []Segment) Batch {
	cp := make([]Segment, len(segs))
	copy(cp, segs)
	return Batch{
		Emitter:   emitter,
		Timestamp: at.UnixMilli(),
		Segments:  cp,
	}
}
