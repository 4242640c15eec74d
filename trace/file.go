package trace

import (
	"errors"
	"fmt"
	"io"
	"time"

	msgpack "github.com/shamaton/msgpack/v2"
)

// Header opens a trace stream and identifies the run that produced it.
type Header struct {
	RunID     string
	Agents    int
	Resources int
	Strategy  string
	StartedAt time.Time
}

// Writer encodes a trace stream: one Header record followed by any number of
// Event records, all msgpack-framed.
type Writer struct {
	w io.Writer
	n int
}

func NewWriter(w io.Writer, h Header) (*Writer, error) {
	if err := msgpack.MarshalWrite(w, h); err != nil {
		return nil, fmt.Errorf("writing trace header: %w", err)
	}
	return &Writer{w: w}, nil
}

// Write appends events to the stream in order.
func (t *Writer) Write(events []Event) error {
	for _, e := range events {
		if err := msgpack.MarshalWrite(t.w, e); err != nil {
			return fmt.Errorf("writing trace event %d: %w", t.n, err)
		}
		t.n++
	}
	return nil
}

// Count reports how many events have been written so far.
func (t *Writer) Count() int {
	return t.n
}

// Read decodes a full trace stream produced by Writer.
func Read(r io.Reader) (Header, []Event, error) {
	var h Header
	if err := msgpack.UnmarshalRead(r, &h); err != nil {
		return h, nil, fmt.Errorf("reading trace header: %w", err)
	}
	var events []Event
	for {
		var e Event
		err := msgpack.UnmarshalRead(r, &e)
		if errors.Is(err, io.EOF) {
			return h, events, nil
		}
		if err != nil {
			return h, events, fmt.Errorf("reading trace event %d: %w", len(events), err)
		}
		events = append(events, e)
	}
}
