package cast

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnkhuat/castedit/pkg/message"
)

const sample = `{"version":2,"width":80,"height":24,"timestamp":1504467315,"idle_time_limit":2.5,"title":"demo","env":{"TERM":"xterm-256color","SHELL":"/bin/zsh"}}
[0.248848,"o","\u001b[1;31mHello \u001b[32mWorld!\u001b[0m\n"]
[1.000000,"o","That was ok\rThis is better."]
[1e-3,"i","x"]
[2.5,"r","100x40"]
[3,"m",""]
[4.25,"o","tail",{"extra":[1,2,3]}]
`

func TestLoadSave_RoundTrip(t *testing.T) {
	rec, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	require.Equal(t, 6, rec.Len())

	out, err := rec.Bytes()
	require.NoError(t, err)
	require.Equal(t, sample, string(out))
}

func TestLoad_CompactsWhitespace(t *testing.T) {
	in := "{\"version\": 2, \"width\": 80}\r\n[ 0.5 , \"o\" , \"a b\" ]\r\n"
	rec, err := Load(strings.NewReader(in))
	require.NoError(t, err)

	out, err := rec.Bytes()
	require.NoError(t, err)
	require.Equal(t, "{\"version\":2,\"width\":80}\n[0.5,\"o\",\"a b\"]\n", string(out))
}

func TestLoad_NoTrailingNewline(t *testing.T) {
	rec, err := Load(strings.NewReader(`{"version":2}` + "\n" + `[1,"o","x"]`))
	require.NoError(t, err)
	require.Equal(t, 1, rec.Len())
	require.Equal(t, 1.0, rec.Time(0))
}

func TestLoad_HeaderOnly(t *testing.T) {
	rec, err := Load(strings.NewReader(`{"version":2}`))
	require.NoError(t, err)
	require.Zero(t, rec.Len())
	require.Zero(t, rec.Duration())
}

func TestLoad_FormatErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		line int
	}{
		{"empty stream", "", 1},
		{"broken header", "{\"version\":2\n", 1},
		{"broken event", "{\"version\":2}\n[0.1,\"o\",\"a\"]\n[0.2,\"o\"\n", 3},
		{"event is object", "{\"version\":2}\n{\"time\":1}\n", 2},
		{"empty event", "{\"version\":2}\n[]\n", 2},
		{"string time", "{\"version\":2}\n[\"0.5\",\"o\",\"a\"]\n", 2},
		{"blank line", "{\"version\":2}\n\n[0.5,\"o\",\"a\"]\n", 2},
		{"trailing garbage", "{\"version\":2}\n[0.5,\"o\",\"a\"] x\n", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.in))
			var formatErr *FormatError
			require.True(t, errors.As(err, &formatErr), "got %v", err)
			require.Equal(t, tc.line, formatErr.Line)
		})
	}
}

func TestSave_EditedTimeReencoded(t *testing.T) {
	rec, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	rec.SetTime(1, 1.5)
	rec.SetTime(2, rec.Time(2)) // unchanged value keeps its token
	out, err := rec.Bytes()
	require.NoError(t, err)

	lines := strings.Split(string(out), "\n")
	require.Equal(t, `[1.5,"o","That was ok\rThis is better."]`, lines[2])
	require.Equal(t, `[1e-3,"i","x"]`, lines[3])
}

func TestSave_RejectsNonFinite(t *testing.T) {
	rec, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	rec.SetTime(0, math.Inf(1))
	_, err = rec.Bytes()
	require.Error(t, err)
}

func TestEvent_TypeAndData(t *testing.T) {
	rec, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, message.EOut, rec.Events[0].Type())
	assert.Equal(t, message.EIn, rec.Events[2].Type())
	assert.Equal(t, message.EResize, rec.Events[3].Type())
	assert.Equal(t, message.EMarker, rec.Events[4].Type())

	data, ok := rec.Events[3].Data()
	require.True(t, ok)
	assert.Equal(t, "100x40", data)

	ev, err := NewEvent(7, "o", "hi")
	require.NoError(t, err)
	data, ok = ev.Data()
	require.True(t, ok)
	assert.Equal(t, "hi", data)
	assert.Equal(t, message.EOut, ev.Type())
}

func TestRecording_Header(t *testing.T) {
	rec, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	h, err := rec.Header()
	require.NoError(t, err)
	assert.Equal(t, 2, h.Version)
	assert.Equal(t, uint(80), h.Width)
	assert.Equal(t, uint(24), h.Height)
	assert.Equal(t, 2.5, h.IdleTimeLimit)
	assert.Equal(t, "demo", h.Title)
	assert.Equal(t, "/bin/zsh", h.Env["SHELL"])
	assert.Equal(t, 4.25, rec.Duration())
}

func TestWriteReadFile_Compression(t *testing.T) {
	rec, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	for _, name := range []string{"demo.cast", "demo.cast.gz", "demo.cast.zst", "demo.cast.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, rec.WriteFile(path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			require.Equal(t, os.FileMode(0644), info.Mode().Perm())

			got, err := ReadFile(path)
			require.NoError(t, err)
			out, err := got.Bytes()
			require.NoError(t, err)
			require.Equal(t, sample, string(out))

			if CompressionFor(path) != NoCompression {
				raw, err := os.ReadFile(path)
				require.NoError(t, err)
				require.NotEqual(t, sample, string(raw))
			}
		})
	}
}

func TestWriteFile_FailureLeavesNothing(t *testing.T) {
	rec, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	rec.SetTime(3, math.NaN())

	dir := t.TempDir()
	path := filepath.Join(dir, "out.cast")
	require.Error(t, rec.WriteFile(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestWriteFile_ReplacesExisting(t *testing.T) {
	rec, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.cast")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
	require.NoError(t, rec.WriteFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, sample, string(raw))
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.cast"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, GzipCompression, CompressionFor("a.cast.GZ"))
	assert.Equal(t, ZstdCompression, CompressionFor("a.zst"))
	assert.Equal(t, LZ4Compression, CompressionFor("a.lz4"))
	assert.Equal(t, NoCompression, CompressionFor("a.cast"))
	assert.Equal(t, "zstd", ZstdCompression.String())
}
