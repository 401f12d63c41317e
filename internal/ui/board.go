package ui

import (
	"image/color"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"

	"PaintBoard/internal/channel"
	"PaintBoard/internal/input"
	"PaintBoard/internal/state"
)

// Size of the shared canvas. Every peer draws in these coordinates and the
// widget scales them to whatever size it is shown at.
const (
	CanvasWidth  = 1024
	CanvasHeight = 768
)

// Board is the drawing surface. It renders segments handed to it by a
// channel and turns mouse or touch input into new segments.
type Board struct {
	widget.BaseWidget

	mu    sync.RWMutex
	segs  []state.Segment
	input input.Adapter
}

var (
	_ fyne.Widget       = (*Board)(nil)
	_ fyne.Draggable    = (*Board)(nil)
	_ desktop.Mouseable = (*Board)(nil)
	_ mobile.Touchable  = (*Board)(nil)
	_ channel.Sink      = (*Board)(nil)
)

func NewBoard() *Board {
	b := &Board{}
	b.ExtendBaseWidget(b)
	return b
}

// Listen routes input on the board to events, using the touch adapter on
// mobile devices and the pointer adapter elsewhere. It needs a running app.
func (b *Board) Listen(events input.Events) {
	kind := input.KindPointer
	if fyne.CurrentDevice().IsMobile() {
		kind = input.KindTouch
	}
	b.ListenAs(kind, events)
}

func (b *Board) ListenAs(kind input.Kind, events input.Events) {
	b.mu.Lock()
	b.input = input.New(kind, b.surface, events)
	b.mu.Unlock()
}

func (b *Board) surface() input.Surface {
	size := b.Size()
	return input.Surface{
		Width:        CanvasWidth,
		Height:       CanvasHeight,
		ClientWidth:  float64(size.Width),
		ClientHeight: float64(size.Height),
	}
}

func (b *Board) adapter() input.Adapter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.input
}

// Draw can be called from any goroutine.
func (b *Board) Draw(seg state.Segment) {
	b.mu.Lock()
	b.segs = append(b.segs, seg)
	b.mu.Unlock()
	fyne.Do(b.Refresh)
}

func (b *Board) Clear() {
	b.mu.Lock()
	b.segs = nil
	b.mu.Unlock()
	fyne.Do(b.Refresh)
}

// Segments returns a copy of everything currently on the board.
func (b *Board) Segments() []state.Segment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]state.Segment, len(b.segs))
	copy(out, b.segs)
	return out
}

func contact(pos fyne.Position) input.Contact {
	return input.Contact{X: float64(pos.X), Y: float64(pos.Y)}
}

func (b *Board) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	if in := b.adapter(); in != nil {
		in.Down(contact(e.Position))
	}
}

func (b *Board) MouseUp(e *desktop.MouseEvent) {
	if in := b.adapter(); in != nil {
		in.Up(contact(e.Position))
	}
}

// fyne reports one finger per board, so every touch is contact 0.
func (b *Board) TouchDown(e *mobile.TouchEvent) {
	if in := b.adapter(); in != nil {
		in.Down(contact(e.Position))
	}
}

func (b *Board) TouchUp(e *mobile.TouchEvent) {
	if in := b.adapter(); in != nil {
		in.Up(contact(e.Position))
	}
}

func (b *Board) TouchCancel(e *mobile.TouchEvent) {
	b.TouchUp(e)
}

func (b *Board) Dragged(e *fyne.DragEvent) {
	if in := b.adapter(); in != nil {
		in.Move(contact(e.Position))
	}
}

func (b *Board) DragEnd() {
	if in := b.adapter(); in != nil {
		in.Up(input.Contact{})
	}
}

func (b *Board) CreateRenderer() fyne.WidgetRenderer {
	r := &boardRenderer{board: b, background: canvas.NewRectangle(color.White)}
	r.sync()
	return r
}

type boardRenderer struct {
	board      *Board
	background *canvas.Rectangle
	segs       []state.Segment
	lines      []*canvas.Line
	objects    []fyne.CanvasObject
}

// sync makes one line object per segment, reusing what it can.
func (r *boardRenderer) sync() {
	r.segs = r.board.Segments()
	if len(r.segs) < len(r.lines) {
		r.lines = r.lines[:len(r.segs)]
	}
	for len(r.lines) < len(r.segs) {
		r.lines = append(r.lines, canvas.NewLine(color.Black))
	}
	r.objects = append(r.objects[:0], r.background)
	for i, l := range r.lines {
		l.StrokeColor = state.ParseColor(r.segs[i].Color)
		r.objects = append(r.objects, l)
	}
}

func (r *boardRenderer) place(size fyne.Size) {
	sx := size.Width / CanvasWidth
	sy := size.Height / CanvasHeight
	sw := float32(math.Min(float64(sx), float64(sy)))
	for i, l := range r.lines {
		s := r.segs[i]
		l.Position1 = fyne.NewPos(float32(s.PX)*sx, float32(s.PY)*sy)
		l.Position2 = fyne.NewPos(float32(s.X)*sx, float32(s.Y)*sy)
		l.StrokeWidth = float32(s.StrokeWidth()) * sw
	}
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.place(size)
}

func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(CanvasWidth/4, CanvasHeight/4)
}

func (r *boardRenderer) Refresh() {
	r.sync()
	r.place(r.board.Size())
	canvas.Refresh(r.board)
}

func (r *boardRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *boardRenderer) Destroy() {}
