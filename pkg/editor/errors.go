package editor

import (
	"errors"
	"fmt"
)

var ErrUnknownKind = errors.New("unknown operation kind")

// RangeError reports an operation whose lines do not select events of the recording.
type RangeError struct {
	Op     Operation
	Events int
}

func (e *RangeError) Error() string {
	first, last := IndexToLine(0), IndexToLine(e.Events-1)
	if e.Events == 0 {
		return fmt.Sprintf("%s: recording has no events", e.Op)
	}
	if e.Op.StartLine > e.Op.EndLine {
		return fmt.Sprintf("%s: start line is after end line", e.Op)
	}
	return fmt.Sprintf("%s: lines must be within %d..%d", e.Op, first, last)
}

// DegenerateRangeError reports a timelapse over a span of zero length.
type DegenerateRangeError struct {
	Op   Operation
	Span float64 // source duration of the range at the time it was applied
}

func (e *DegenerateRangeError) Error() string {
	if e.Op.StartLine == e.Op.EndLine {
		return fmt.Sprintf("%s: timelapse needs at least two lines", e.Op)
	}
	return fmt.Sprintf("%s: range spans %g seconds, cannot rescale", e.Op, e.Span)
}

// ValueError reports an operation value that is NaN or infinite.
type ValueError struct {
	Op Operation
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: value must be a finite number", e.Op)
}
