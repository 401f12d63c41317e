// Package ui is the desktop front end: one window with the board and its
// toolbar.
package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

type Window struct {
	app    fyne.App
	win    fyne.Window
	status *widget.Label
}

// NewWindow lays out board and tools. A non-empty shareLink is shown in the
// status bar with a button copying it to the clipboard.
func NewWindow(title, shareLink string, board *Board, tools *Toolbox) *Window {
	a := app.NewWithID("org.paintboard")
	w := &Window{app: a, win: a.NewWindow(title), status: widget.NewLabel("Ready")}
	w.win.Resize(fyne.NewSize(CanvasWidth, CanvasHeight+80))

	bottom := container.NewHBox(w.status)
	if shareLink != "" {
		link := widget.NewLabel(shareLink)
		copyBtn := widget.NewButton("Copy link", func() {
			w.app.Clipboard().SetContent(shareLink)
			w.status.SetText("Link copied")
		})
		bottom = container.NewHBox(w.status, widget.NewSeparator(), link, copyBtn)
	}

	w.win.SetContent(container.NewBorder(tools.Toolbar(), bottom, nil, nil, board))
	return w
}

// SetStatus can be called from any goroutine.
func (w *Window) SetStatus(text string) {
	fyne.Do(func() { w.status.SetText(text) })
}

func (w *Window) ShowError(err error) {
	fyne.Do(func() { dialog.ShowError(err, w.win) })
}

// ShowSave asks for a destination file and hands its path to save.
func (w *Window) ShowSave(name string, save func(path string) error) {
	fyne.Do(func() {
		d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			path := uc.URI().Path()
			uc.Close()
			if err := save(path); err != nil {
				dialog.ShowError(err, w.win)
				return
			}
			w.status.SetText("Saved " + path)
		}, w.win)
		d.SetFileName(name)
		d.Show()
	})
}

// ShowAndRun blocks until the window is closed.
func (w *Window) ShowAndRun() {
	w.win.ShowAndRun()
}

func (w *Window) Close() {
	fyne.Do(w.win.Close)
}
