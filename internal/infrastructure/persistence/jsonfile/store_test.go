package jsonfile

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gca-hub/gca-staff-hub/internal/domain/staff"
	"github.com/gca-hub/gca-staff-hub/pkg/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

func TestLoad_MissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "staffxp.json"), quietLogger())

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staffxp.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := New(path, quietLogger())
	records, err := store.Load(context.Background())
	require.NoError(t, err, "malformed content must fail softly")
	assert.Empty(t, records)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "data", "staffxp.json"), quietLogger())
	ctx := context.Background()

	in := map[staff.UserID]*staff.Record{
		"100": {XP: 61.5, VoiceTime: 150_000, TicketsClosed: 2, LastXPTime: 1_700_000_090_000, LastVoiceXPTime: 1_700_000_120_000},
		"200": {XP: 20, TicketsClosed: 1},
		"300": {},
	}

	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for id, want := range in {
		got, ok := out[id]
		require.True(t, ok, "record %s missing after round trip", id)
		assert.Equal(t, *want, *got)
	}
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "staffxp.json")
	store := New(path, quietLogger())

	require.NoError(t, store.Save(context.Background(), map[staff.UserID]*staff.Record{
		"1": {XP: 1},
	}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSave_OverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staffxp.json")
	store := New(path, quietLogger())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, map[staff.UserID]*staff.Record{"1": {XP: 1}}))
	require.NoError(t, store.Save(ctx, map[staff.UserID]*staff.Record{"2": {XP: 2}}))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out, staff.UserID("2"))

	// No temp files may be left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoad_DropsInvalidRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staffxp.json")
	doc := `{"ok": {"xp": 5, "voiceTime": 0, "ticketsClosed": 0}, "bad": {"xp": -3, "voiceTime": 0, "ticketsClosed": 0}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	store := New(path, quietLogger())
	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, records, staff.UserID("ok"))
	assert.NotContains(t, records, staff.UserID("bad"))
}
