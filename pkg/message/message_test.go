package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWinsize(t *testing.T) {
	ws, err := ParseWinsize("120x40")
	require.NoError(t, err)
	require.Equal(t, Winsize{Rows: 40, Cols: 120}, ws)

	for _, bad := range []string{"", "120", "x40", "120x", "ax40", "120x-1", "70000x10"} {
		_, err := ParseWinsize(bad)
		require.Error(t, err, bad)
	}
}

func TestWrapUnwrap(t *testing.T) {
	msg, err := Wrap(TWinsize, Winsize{Rows: 24, Cols: 80})
	require.NoError(t, err)

	buf, err := json.Marshal(msg)
	require.NoError(t, err)
	got, err := Unwrap(buf)
	require.NoError(t, err)
	require.Equal(t, TWinsize, got.Type)

	var ws Winsize
	require.NoError(t, ToStruct(got.Data, &ws))
	require.Equal(t, Winsize{Rows: 24, Cols: 80}, ws)
}
