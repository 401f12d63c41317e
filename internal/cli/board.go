package cli

import (
	"context"
	"errors"

	"github.com/golang/glog"

	"PaintBoard/internal/channel"
	"PaintBoard/internal/export"
	"PaintBoard/internal/input"
	"PaintBoard/internal/state"
	"PaintBoard/internal/store"
	"PaintBoard/internal/ui"
)

// canvasArea is what an export covers unless it is asked to fit the drawing.
var canvasArea = state.Rect{Width: ui.CanvasWidth, Height: ui.CanvasHeight}

// runBoard opens the window for backend and blocks until it is closed or ctx
// is done. lost, when not nil, is closed if the backend goes away.
func runBoard(ctx context.Context, a *App, backend store.Backend, title, link string, lost <-chan struct{}) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	board := ui.NewBoard()
	tools := ui.NewToolbox()
	ch := channel.New(backend, board, a.config())
	win := ui.NewWindow(title, link, board, tools)

	board.Listen(input.Events{
		OnSegment: func(seg state.Segment) { ch.Draw(ctx, seg, tools.Style()) },
	})
	tools.OnClear = func() {
		go func() {
			err := ch.Clear(ctx)
			switch {
			case errors.Is(err, channel.ErrClearInProgress):
				win.SetStatus("Clear already running")
			case err != nil:
				win.ShowError(err)
			default:
				win.SetStatus("Board cleared")
			}
		}()
	}
	tools.OnExport = func() {
		win.ShowSave("board.pdf", func(path string) error {
			return export.PDF(path, board.Segments(), canvasArea)
		})
	}

	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx) }()

	closed := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			win.Close()
		case <-lost:
			glog.Warningf("[channel] backend connection lost")
			win.SetStatus("Disconnected from host")
		case <-closed:
		}
	}()

	win.SetStatus("Connected as " + ch.Emitter())
	win.ShowAndRun()
	close(closed)
	cancel()
	return <-done
}
