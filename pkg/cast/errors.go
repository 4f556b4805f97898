package cast

import "fmt"

// FormatError reports a line that cannot be read as a recording record.
type FormatError struct {
	Line   int // 1-based line in the input stream
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
