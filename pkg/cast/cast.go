/*
A recording is one header line followed by one event per line (asciicast v2).

	{"version": 2, "width": 80, "height": 24}
	[0.248848, "o", "\u001b[1;31mHello \u001b[32mWorld!\u001b[0m\n"]
	[1.001376, "o", "That was ok\rThis is better."]

Only the leading time of each event is interpreted. The header and every
field after the time are kept as raw JSON and written back untouched.
*/
package cast

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/qnkhuat/castedit/internal/cfg"
	"github.com/qnkhuat/castedit/pkg/message"
)

type Event struct {
	Time float64
	Tail []json.RawMessage

	// time token as read, reused on save while Time is unchanged
	rawTime  json.RawMessage
	origTime float64
}

// NewEvent builds an event whose tail fields are marshalled from fields.
func NewEvent(time float64, fields ...interface{}) (Event, error) {
	ev := Event{Time: time}
	for _, field := range fields {
		raw, err := json.Marshal(field)
		if err != nil {
			return Event{}, err
		}
		ev.Tail = append(ev.Tail, raw)
	}
	return ev, nil
}

// Type returns the event code ("o", "i", "r", "m") or "" when absent.
func (ev Event) Type() message.AsciiCastEventType {
	if len(ev.Tail) < 1 {
		return ""
	}
	var t string
	if err := json.Unmarshal(ev.Tail[0], &t); err != nil {
		return ""
	}
	return message.AsciiCastEventType(t)
}

// Data returns the event payload when it is a string.
func (ev Event) Data() (string, bool) {
	if len(ev.Tail) < 2 {
		return "", false
	}
	var data string
	if err := json.Unmarshal(ev.Tail[1], &data); err != nil {
		return "", false
	}
	return data, true
}

type Recording struct {
	Descriptor json.RawMessage
	Events     []Event
}

func (rec *Recording) Len() int {
	return len(rec.Events)
}

func (rec *Recording) Time(i int) float64 {
	return rec.Events[i].Time
}

func (rec *Recording) SetTime(i int, t float64) {
	rec.Events[i].Time = t
}

// Header decodes the descriptor. The descriptor itself is never modified.
func (rec *Recording) Header() (message.Header, error) {
	var h message.Header
	if err := json.Unmarshal(rec.Descriptor, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

// Duration is the time of the last event, 0 for an empty recording.
func (rec *Recording) Duration() float64 {
	if len(rec.Events) == 0 {
		return 0
	}
	return rec.Events[len(rec.Events)-1].Time
}

// Load reads a header line followed by any number of event lines.
func Load(r io.Reader) (*Recording, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	rec := &Recording{}
	lineNo := 0
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if perr := rec.parseLine(lineNo, line); perr != nil {
				return nil, perr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", lineNo+1, err)
		}
	}

	if lineNo == 0 {
		return nil, &FormatError{Line: 1, Reason: "missing header"}
	}
	return rec, nil
}

func (rec *Recording) parseLine(lineNo int, line []byte) error {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) > cfg.CAST_MAX_LINE_SIZE {
		return &FormatError{Line: lineNo, Reason: "record too long"}
	}
	if len(bytes.TrimSpace(line)) == 0 {
		return &FormatError{Line: lineNo, Reason: "empty record"}
	}

	if lineNo == 1 {
		desc, err := compact(line)
		if err != nil {
			return &FormatError{Line: lineNo, Reason: "header is not valid JSON", Err: err}
		}
		rec.Descriptor = desc
		return nil
	}

	var fields []json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return &FormatError{Line: lineNo, Reason: "event is not a JSON array", Err: err}
	}
	if len(fields) == 0 {
		return &FormatError{Line: lineNo, Reason: "event has no time"}
	}

	var t float64
	if err := json.Unmarshal(fields[0], &t); err != nil {
		return &FormatError{Line: lineNo, Reason: "event time is not a number", Err: err}
	}
	rawTime, err := compact(fields[0])
	if err != nil {
		return &FormatError{Line: lineNo, Reason: "event time is not a number", Err: err}
	}

	ev := Event{Time: t, rawTime: rawTime, origTime: t}
	for _, field := range fields[1:] {
		raw, err := compact(field)
		if err != nil {
			return &FormatError{Line: lineNo, Reason: "invalid event field", Err: err}
		}
		ev.Tail = append(ev.Tail, raw)
	}
	rec.Events = append(rec.Events, ev)
	return nil
}

// Save writes the header then every event, one record per line.
func (rec *Recording) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if len(rec.Descriptor) == 0 {
		return errors.New("recording has no header")
	}
	bw.Write(rec.Descriptor)
	bw.WriteByte('\n')

	for i, ev := range rec.Events {
		timeToken, err := ev.timeToken()
		if err != nil {
			return fmt.Errorf("encode event %d: %w", i, err)
		}
		bw.WriteByte('[')
		bw.Write(timeToken)
		for _, field := range ev.Tail {
			bw.WriteByte(',')
			bw.Write(field)
		}
		bw.WriteString("]\n")
	}
	return bw.Flush()
}

// Bytes returns the saved form of the recording.
func (rec *Recording) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := rec.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (ev Event) timeToken() ([]byte, error) {
	if ev.rawTime != nil && ev.Time == ev.origTime {
		return ev.rawTime, nil
	}
	// json rejects NaN and Inf, which is what we want here
	return json.Marshal(ev.Time)
}

func compact(raw []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
