package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/service/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	svc, err := database.NewSQLiteService(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	store, err := NewSQLStore(t.Context(), svc.GetDB(), svc.Dialect(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func writeSnapshotFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "followers.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestSQLStoreRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	dir := t.TempDir()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	first, err := store.Upload(t.Context(), UploadRequest{
		Name:    "my-followers",
		Files:   []string{writeSnapshotFile(t, dir, `{"v":1}`)},
		RootDir: dir,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"followers.json"}, first.Items)

	store.now = func() time.Time { return base.Add(time.Hour) }
	second, err := store.Upload(t.Context(), UploadRequest{
		Name:    "my-followers",
		Files:   []string{writeSnapshotFile(t, dir, `{"v":2}`)},
		RootDir: dir,
	})
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	archives, err := store.List(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, archives, 2)

	latest, ok := Latest(archives, "my-followers")
	require.True(t, ok)
	require.Equal(t, second.ID, latest.ID)
	require.True(t, latest.CreatedAt.Equal(base.Add(time.Hour)))

	data, err := store.Download(t.Context(), latest.ID)
	require.NoError(t, err)
	content, err := Extract(data, "followers.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"v":2}`, string(content))
}

func TestSQLStorePurgesExpired(t *testing.T) {
	store := newSQLiteStore(t)
	dir := t.TempDir()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	_, err := store.Upload(t.Context(), UploadRequest{
		Name:      "my-followers",
		Files:     []string{writeSnapshotFile(t, dir, `{}`)},
		RootDir:   dir,
		Retention: 24 * time.Hour,
	})
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(48 * time.Hour) }
	archives, err := store.List(t.Context(), 10)
	require.NoError(t, err)
	require.Empty(t, archives)
}

func TestSQLStoreDownloadMissing(t *testing.T) {
	store := newSQLiteStore(t)
	_, err := store.Download(t.Context(), 42)
	require.Error(t, err)
}

func TestBindRewritesPlaceholders(t *testing.T) {
	sqlite := &SQLStore{dialect: database.DialectSQLite}
	require.Equal(t, "SELECT ? , ? WHERE a = ?", sqlite.bind("SELECT $1 , $2 WHERE a = $10"))

	pg := &SQLStore{dialect: database.DialectPostgres}
	require.Equal(t, "SELECT $1", pg.bind("SELECT $1"))
}
