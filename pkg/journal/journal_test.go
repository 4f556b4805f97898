package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qnkhuat/castedit/pkg/editor"
)

func openDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddGetEdit(t *testing.T) {
	db := openDB(t)
	ops := []editor.Operation{{StartLine: 2, EndLine: 4, Kind: editor.KLinear, Value: 0.1}}
	entry := NewEntry("in.cast", "out.cast", []byte("before"), []byte("after"), ops)
	entry.Events = 3
	entry.DurationBefore = 10
	entry.DurationAfter = 2

	id, err := db.AddEdit(entry, []byte("after"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	got, err := db.GetEdit(id)
	require.NoError(t, err)
	require.Equal(t, id, got.Id)
	require.Equal(t, entry.RunID, got.RunID)
	require.Equal(t, ops, got.Operations)
	require.Equal(t, Digest([]byte("after")), got.OutputDigest)
	require.NotEqual(t, got.InputDigest, got.OutputDigest)
	require.Len(t, got.InputDigest, 64)
	require.True(t, entry.CreatedAt.Equal(got.CreatedAt))

	rec, err := db.GetRecording(id)
	require.NoError(t, err)
	require.Equal(t, "after", string(rec))
}

func TestGetEdit_NotFound(t *testing.T) {
	db := openDB(t)
	_, err := db.GetEdit(42)
	require.ErrorIs(t, err, ErrNotFound)

	id, err := db.AddEdit(NewEntry("a", "b", nil, nil, nil), nil)
	require.NoError(t, err)
	_, err = db.GetRecording(id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetEdits_NewestFirstWithPaging(t *testing.T) {
	db := openDB(t)
	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := db.AddEdit(NewEntry(name, name+".out", nil, nil, nil), nil)
		require.NoError(t, err)
	}

	all, err := db.GetEdits(0, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, "d", all[0].Input)
	require.Equal(t, "a", all[3].Input)

	page, err := db.GetEdits(1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "c", page[0].Input)
	require.Equal(t, "b", page[1].Input)

	rest, err := db.GetEdits(3, 0)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, "a", rest[0].Input)

	none, err := db.GetEdits(10, 5)
	require.NoError(t, err)
	require.Empty(t, none)
}
