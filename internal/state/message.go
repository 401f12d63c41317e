package state

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformed = errors.New("malformed message")

type MessageType string

const (
	TypeLine  MessageType = "line"
	TypeLines MessageType = "lines"
	TypeClear MessageType = "clear"
)

// Message is the envelope for everything on the bus and in the document
// store. Line and Lines hold JSON text, not nested objects, so documents
// written by the browser client decode unchanged.
type Message struct {
	Type      MessageType `json:"type"`
	Emitter   string      `json:"emitter"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Line      string      `json:"line,omitempty"`
	Lines     string      `json:"lines,omitempty"`
}

// LineMessage wraps a single live segment.
func LineMessage(emitter string, seg Segment) Message {
	b, _ := json.Marshal(seg)
	return Message{Type: TypeLine, Emitter: emitter, Line: string(b)}
}

// BatchMessage is the persisted form of a batch.
func BatchMessage(b Batch) Message {
	segs := b.Segments
	if segs == nil {
		segs = []Segment{}
	}
	raw, _ := json.Marshal(segs)
	return Message{Type: TypeLines, Emitter: b.Emitter, Timestamp: b.Timestamp, Lines: string(raw)}
}

// ClearMessage voids every batch persisted before it.
func ClearMessage(emitter string) Message {
	return Message{Type: TypeClear, Emitter: emitter}
}

// Segment decodes the payload of a line message.
func (m Message) Segment() (Segment, error) {
	var seg Segment
	if m.Type != TypeLine {
		return seg, fmt.Errorf("%w: want %q, got %q", ErrMalformed, TypeLine, m.Type)
	}
	if err := json.Unmarshal([]byte(m.Line), &seg); err != nil {
		return seg, fmt.Errorf("%w: line: %v", ErrMalformed, err)
	}
	return seg, nil
}

// Batch decodes the payload of a lines message.
func (m Message) Batch() (Batch, error) {
	if m.Type != TypeLines {
		return Batch{}, fmt.Errorf("%w: want %q, got %q", ErrMalformed, TypeLines, m.Type)
	}
	var segs []Segment
	if err := json.Unmarshal([]byte(m.Lines), &segs); err != nil {
		return Batch{}, fmt.Errorf("%w: lines: %v", ErrMalformed, err)
	}
	return Batch{Emitter: m.Emitter, Timestamp: m.Timestamp, Segments: segs}, nil
}
