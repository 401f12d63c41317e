package state

import "math"

// Rect is an axis aligned area of the canvas.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Bounds returns the box covering every segment, padded by half the widest
// stroke so round caps are not cut off.
func Bounds(segs []Segment) Rect {
	if len(segs) == 0 {
		return Rect{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	pad := 0.0
	for _, s := range segs {
		minX = math.Min(minX, math.Min(s.X, s.PX))
		minY = math.Min(minY, math.Min(s.Y, s.PY))
		maxX = math.Max(maxX, math.Max(s.X, s.PX))
		maxY = math.Max(maxY, math.Max(s.Y, s.PY))
		pad = math.Max(pad, s.StrokeWidth()/2)
	}

	return Rect{
		X:      minX - pad,
		Y:      minY - pad,
		Width:  maxX - minX + 2*pad,
		Height: maxY - minY + 2*pad,
	}
}
