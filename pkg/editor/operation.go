package editor

import "fmt"

type Kind string

const (
	// force every event in the range to Value
	KSet Kind = "set"
	// add Value to every event from the start of the range to the end of the recording
	KOffset Kind = "offset"
	// space the range evenly, Value seconds apart
	KLinear Kind = "linear"
	// rescale the range so it lasts Value seconds
	KTimelapse Kind = "timelapse"
)

func (k Kind) Valid() bool {
	switch k {
	case KSet, KOffset, KLinear, KTimelapse:
		return true
	}
	return false
}

// Operation targets recording lines StartLine..EndLine (1-based, inclusive).
// Line 1 is the header, so the first event is line 2.
type Operation struct {
	StartLine int     `json:"start" toml:"start" yaml:"start" schema:"start,required"`
	EndLine   int     `json:"end" toml:"end" yaml:"end" schema:"end,required"`
	Kind      Kind    `json:"kind" toml:"kind" yaml:"kind" schema:"kind,required"`
	Value     float64 `json:"value" toml:"value" yaml:"value" schema:"value,required"`
}

func (op Operation) String() string {
	return fmt.Sprintf("%s(%d..%d, %g)", op.Kind, op.StartLine, op.EndLine, op.Value)
}

// DescriptorLines is how many lines precede the first event.
// Event indices and file lines are related only through LineToIndex and
// IndexToLine, which rely on this.
const DescriptorLines = 1

// LineToIndex maps a 1-based file line to a 0-based event index.
func LineToIndex(line int) int {
	return line - DescriptorLines - 1
}

// IndexToLine is the inverse of LineToIndex.
func IndexToLine(index int) int {
	return index + DescriptorLines + 1
}
