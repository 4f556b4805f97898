// Reference: https://github.com/asciinema/asciinema/blob/develop/doc/asciicast-v2.md
package message

import (
	"fmt"
	"strconv"
	"strings"
)

// Header is the typed view of an asciicast v2 header line.
// Unknown keys are ignored here; the raw line is what gets written back.
type Header struct {
	Version       int               `json:"version"`
	Width         uint              `json:"width"`
	Height        uint              `json:"height"`
	Timestamp     int64             `json:"timestamp,omitempty"`
	Duration      float64           `json:"duration,omitempty"`
	IdleTimeLimit float64           `json:"idle_time_limit,omitempty"`
	Title         string            `json:"title,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
}

type AsciiCastEventType string

const (
	// read from stdin
	EIn AsciiCastEventType = "i"
	// write to stdout
	EOut AsciiCastEventType = "o"
	// terminal resize, data is "COLSxROWS"
	EResize AsciiCastEventType = "r"
	// marker / breakpoint
	EMarker AsciiCastEventType = "m"
)

// ParseWinsize decodes the data of a resize event.
func ParseWinsize(data string) (Winsize, error) {
	parts := strings.SplitN(data, "x", 2)
	if len(parts) != 2 {
		return Winsize{}, fmt.Errorf("invalid winsize: %q", data)
	}
	cols, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return Winsize{}, fmt.Errorf("invalid winsize cols %q: %w", data, err)
	}
	rows, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return Winsize{}, fmt.Errorf("invalid winsize rows %q: %w", data, err)
	}
	return Winsize{Rows: uint16(rows), Cols: uint16(cols)}, nil
}
