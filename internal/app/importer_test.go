package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const legacySnapshot = `{
  "snapshotAt": "2024-05-31T12:00:00.000Z",
  "followers": [
    {"databaseId": 1, "login": "alice", "url": "https://github.com/alice", "avatarUrl": "a"}
  ]
}`

func TestImportSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	require.NoError(t, os.WriteFile(path, []byte(legacySnapshot), 0o644))

	rec := &recorder{}
	writer := &fakeWriter{rec: rec}
	res, err := ImportSnapshot(t.Context(), writer, path, false, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 1, res.Members)
	require.True(t, res.CapturedAt.Equal(time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)))
	require.Equal(t, int64(1), res.Upload.ID)
	require.Equal(t, []string{"persist", "upload"}, rec.calls)
	require.Equal(t, "alice", writer.persisted[0].Handle)
}

func TestImportSnapshotDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	require.NoError(t, os.WriteFile(path, []byte(legacySnapshot), 0o644))

	rec := &recorder{}
	res, err := ImportSnapshot(t.Context(), &fakeWriter{rec: rec}, path, true, nil)
	require.NoError(t, err)
	require.Nil(t, res.Upload)
	require.Empty(t, rec.calls)
}

func TestImportSnapshotRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"members":[]}`), 0o644))

	rec := &recorder{}
	_, err := ImportSnapshot(t.Context(), &fakeWriter{rec: rec}, path, false, zap.NewNop())
	require.ErrorContains(t, err, "bad.json")
	require.Empty(t, rec.calls)
}
