package state

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestBatchMessageKeepsDrawOrder(t *testing.T) {
	segs := []Segment{
		{X: 1, Y: 1, PX: 0, PY: 0, Color: "red"},
		{X: 2, Y: 2, PX: 1, PY: 1, Color: "red"},
		{X: 3, Y: 5, PX: 2, PY: 2, Color: "blue", Width: 4},
	}
	at := time.UnixMilli(1700000000123)
	b := NewBatch("e1", at, segs)

	// the batch owns its segments
	segs[0].X = 99

	msg := BatchMessage(b)
	assert.Equal(t, TypeLines, msg.Type)
	assert.Equal(t, "e1", msg.Emitter)
	assert.Equal(t, int64(1700000000123), msg.Timestamp)

	got, err := msg.Batch()
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, len(got.Segments))
	assert.Equal(t, float64(1), got.Segments[0].X)
	assert.Equal(t, float64(2), got.Segments[1].X)
	assert.Equal(t, float64(4), got.Segments[2].Width)
}

func TestWireNamesMatchBrowserClient(t *testing.T) {
	msg := LineMessage("e1", Segment{X: 1, Y: 2, PX: 3, PY: 4, Color: "#ff0000"})
	assert.Equal(t, `{"x":1,"y":2,"px":3,"py":4,"c":"#ff0000"}`, msg.Line)

	// a document as the browser client writes it
	doc := Message{Type: TypeLines, Emitter: "123", Timestamp: 5, Lines: `[{"x":1,"y":1,"px":0,"py":0,"c":"#000"}]`}
	b, err := doc.Batch()
	assert.Equal(t, nil, err)
	assert.Equal(t, "#000", b.Segments[0].Color)
	assert.Equal(t, float64(DefaultWidth), b.Segments[0].StrokeWidth())
}

func TestMalformedPayloads(t *testing.T) {
	_, err := Message{Type: TypeLines, Lines: "not json"}.Batch()
	assert.Equal(t, true, errors.Is(err, ErrMalformed))

	_, err = ClearMessage("e1").Segment()
	assert.Equal(t, true, errors.Is(err, ErrMalformed))
}

func TestStyleApply(t *testing.T) {
	st := Style{Color: "#00ff00", Width: 3, Mode: ModeDraw}

	own := st.Apply(Segment{X: 1})
	assert.Equal(t, "#00ff00", own.Color)
	assert.Equal(t, float64(3), own.Width)

	// peers' segments keep their color
	peer := st.Apply(Segment{X: 1, Color: "red"})
	assert.Equal(t, "red", peer.Color)

	erase := Style{Color: "#00ff00", Width: 20, Mode: ModeErase}.Apply(Segment{})
	assert.Equal(t, "#ffffff", erase.Color)
}

func TestEpoch(t *testing.T) {
	var e Epoch
	start := e.Current()
	assert.Equal(t, false, e.Stale(start))
	assert.Equal(t, start+1, e.Advance())
	assert.Equal(t, true, e.Stale(start))
}

func TestBounds(t *testing.T) {
	assert.Equal(t, true, Bounds(nil).Empty())

	r := Bounds([]Segment{
		{X: 10, Y: 10, PX: 0, PY: 0, Width: 2},
		{X: 20, Y: 5, PX: 10, PY: 10, Width: 4},
	})
	assert.Equal(t, float64(-2), r.X)
	assert.Equal(t, float64(-2), r.Y)
	assert.Equal(t, float64(24), r.Width)
	assert.Equal(t, float64(14), r.Height)
}
