package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/assert/v2"

	"PaintBoard/internal/state"
)

func TestPDFWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.pdf")
	segs := []state.Segment{
		{X: 10, Y: 10, PX: 0, PY: 0, Color: "#ff0000"},
		{X: 20, Y: 40, PX: 10, PY: 10, Color: "blue", Width: 3},
	}

	assert.Equal(t, nil, PDF(path, segs, state.Rect{}))

	b, err := os.ReadFile(path)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, bytes.HasPrefix(b, []byte("%PDF-")))
}

func TestPDFNothingToExport(t *testing.T) {
	err := PDF(filepath.Join(t.TempDir(), "empty.pdf"), nil, state.Rect{})
	assert.Equal(t, ErrEmpty, err)
}
