/*
The editor rewrites event times of a recording.

Operations are applied in order of their end line. An operation only changes
events inside its range, then shifts every later event by however much the end
of the range moved. So when an operation runs, everything before its start has
already been corrected by the operations that end earlier.
*/
package editor

import (
	"fmt"
	"log"
	"math"
	"sort"
)

// Timeline is the time column of a recording.
type Timeline interface {
	Len() int
	Time(i int) float64
	SetTime(i int, t float64)
}

// Times is a Timeline over a plain slice.
type Times []float64

func (ts Times) Len() int                 { return len(ts) }
func (ts Times) Time(i int) float64       { return ts[i] }
func (ts Times) SetTime(i int, t float64) { ts[i] = t }

// Sort returns ops ordered by end line. Operations sharing an end line keep
// their relative order.
func Sort(ops []Operation) []Operation {
	sorted := make([]Operation, len(ops))
	copy(sorted, ops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EndLine < sorted[j].EndLine
	})
	return sorted
}

// Validate checks op against a timeline of n events.
func Validate(op Operation, n int) error {
	if !op.Kind.Valid() {
		return fmt.Errorf("%s: %w", op, ErrUnknownKind)
	}
	if math.IsNaN(op.Value) || math.IsInf(op.Value, 0) {
		return &ValueError{Op: op}
	}
	start, end := LineToIndex(op.StartLine), LineToIndex(op.EndLine)
	if start < 0 || end >= n || start > end {
		return &RangeError{Op: op, Events: n}
	}
	if op.Kind == KTimelapse && start == end {
		return &DegenerateRangeError{Op: op}
	}
	return nil
}

// Apply sorts ops by end line and applies them to tl in place.
// Every operation is validated before tl is touched. A timelapse whose range
// has collapsed to zero duration by the time it runs fails mid-way, leaving
// tl partially edited; callers must discard it.
func Apply(tl Timeline, ops []Operation) error {
	sorted := Sort(ops)
	n := tl.Len()
	for _, op := range sorted {
		if err := Validate(op, n); err != nil {
			return err
		}
	}
	warnSharedEnds(sorted)

	for _, op := range sorted {
		if err := applyOne(tl, op); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(tl Timeline, op Operation) error {
	start, end := LineToIndex(op.StartLine), LineToIndex(op.EndLine)
	switch op.Kind {
	case KSet:
		set(tl, start, end, op.Value)
	case KOffset:
		shift(tl, start, op.Value)
	case KLinear:
		linear(tl, start, end, op.Value)
	case KTimelapse:
		span := tl.Time(end) - tl.Time(start)
		if span == 0 {
			return &DegenerateRangeError{Op: op, Span: span}
		}
		timelapse(tl, start, end, op.Value)
	default:
		return fmt.Errorf("%s: %w", op, ErrUnknownKind)
	}
	return nil
}

func set(tl Timeline, start, end int, value float64) {
	difference := value - tl.Time(end)
	for i := start; i <= end; i++ {
		tl.SetTime(i, value)
	}
	shift(tl, end+1, difference)
}

func linear(tl Timeline, start, end int, step float64) {
	startSec := tl.Time(start)
	oldEnd := tl.Time(end)
	for i := start + 1; i <= end; i++ {
		tl.SetTime(i, startSec+step*float64(i-start))
	}
	shift(tl, end+1, tl.Time(end)-oldEnd)
}

func timelapse(tl Timeline, start, end int, length float64) {
	startSec := tl.Time(start)
	oldEnd := tl.Time(end)
	scale := length / (oldEnd - startSec)
	for i := start + 1; i <= end; i++ {
		tl.SetTime(i, startSec+(tl.Time(i)-startSec)*scale)
	}
	shift(tl, end+1, tl.Time(end)-oldEnd)
}

// shift adds offset to every event from index from to the end.
func shift(tl Timeline, from int, offset float64) {
	if offset == 0 {
		return
	}
	for i := from; i < tl.Len(); i++ {
		tl.SetTime(i, tl.Time(i)+offset)
	}
}

// Overlapping operations that end on the same line are resolved by input
// order alone.
func warnSharedEnds(sorted []Operation) {
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.EndLine == cur.EndLine {
			log.Printf("Operations %s and %s end on the same line, applying in input order", prev, cur)
		}
	}
}
