package ui

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"PaintBoard/internal/channel"
	"PaintBoard/internal/state"
)

// Palette offered by the toolbar, first entry is the default.
var Palette = []string{"#000000", "#ff0000", "#00ff00", "#0000ff", "#ffff00"}

type colorSwatch struct {
	widget.BaseWidget
	Color    string
	OnTapped func(string)
}

func newColorSwatch(c string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(state.ParseColor(s.Color))
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(*fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// Toolbox holds the current pen settings. Style is safe to call from any
// goroutine while the toolbar is being used.
type Toolbox struct {
	mu    sync.Mutex
	style state.Style

	// OnClear and OnExport are run when their toolbar buttons are pressed.
	OnClear  func()
	OnExport func()
}

var _ channel.Controls = (*Toolbox)(nil)

func NewToolbox() *Toolbox {
	return &Toolbox{style: state.DefaultStyle()}
}

func (t *Toolbox) Style() state.Style {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.style
}

// SetColor picks a pen color and leaves eraser mode.
func (t *Toolbox) SetColor(c string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.style.Color = c
	t.style.Mode = state.ModeDraw
}

func (t *Toolbox) SetWidth(w float64) {
	if w <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.style.Width = w
}

func (t *Toolbox) SetMode(m state.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.style.Mode = m
}

func (t *Toolbox) clear() {
	if t.OnClear != nil {
		t.OnClear()
	}
}

func (t *Toolbox) export() {
	if t.OnExport != nil {
		t.OnExport()
	}
}

// Toolbar builds the widgets bound to t.
func (t *Toolbox) Toolbar() fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { t.SetMode(state.ModeDraw) }),
		widget.NewToolbarAction(theme.ContentRemoveIcon(), func() { t.SetMode(state.ModeErase) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DeleteIcon(), t.clear),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), t.export),
	)

	colorBox := container.NewHBox()
	for _, c := range Palette {
		colorBox.Add(newColorSwatch(c, t.SetColor))
	}

	strokeSlider := widget.NewSlider(1, 50)
	strokeSlider.SetValue(t.Style().Width)
	strokeSlider.OnChanged = t.SetWidth
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), strokeSlider)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		layout.NewSpacer(),
	)
}
