// Package export renders a canvas to a PDF page.
package export

import (
	"errors"
	"math"

	"github.com/jung-kurt/gofpdf"

	"PaintBoard/internal/state"
)

var ErrEmpty = errors.New("export: nothing to export")

const marginMM = 10.0

// PDF draws segs on a single landscape A4 page, scaled to fit. area is the
// canvas region to export; an empty area means the bounds of the drawing.
func PDF(path string, segs []state.Segment, area state.Rect) error {
	if len(segs) == 0 {
		return ErrEmpty
	}
	if area.Empty() {
		area = state.Bounds(segs)
	}

	p := gofpdf.New("L", "mm", "A4", "")
	p.SetTitle("PaintBoard", true)
	p.AddPage()
	p.SetLineCapStyle("round")

	pageW, pageH := p.GetPageSize()
	scale := math.Min((pageW-2*marginMM)/area.Width, (pageH-2*marginMM)/area.Height)
	if area.Width <= 0 || area.Height <= 0 || math.IsInf(scale, 0) {
		scale = 1
	}
	tx := func(x float64) float64 { return marginMM + (x-area.X)*scale }
	ty := func(y float64) float64 { return marginMM + (y-area.Y)*scale }

	for _, s := range segs {
		c := state.ParseColor(s.Color)
		p.SetDrawColor(int(c.R), int(c.G), int(c.B))
		p.SetLineWidth(math.Max(s.StrokeWidth()*scale, 0.1))
		p.Line(tx(s.PX), ty(s.PY), tx(s.X), ty(s.Y))
	}
	return p.OutputFileAndClose(path)
}
