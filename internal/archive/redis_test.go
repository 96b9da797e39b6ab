package archive

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCache struct {
	seq    map[string]int64
	hashes map[string]map[string]any
	ttls   map[string]time.Duration
	index  map[string]map[int64]bool
	zrem   []int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		seq:    map[string]int64{},
		hashes: map[string]map[string]any{},
		ttls:   map[string]time.Duration{},
		index:  map[string]map[int64]bool{},
	}
}

func (f *fakeCache) NextID(_ context.Context, key string) (int64, error) {
	f.seq[key]++
	return f.seq[key], nil
}

func (f *fakeCache) PutHash(_ context.Context, key string, fields map[string]any, ttl time.Duration) error {
	f.hashes[key] = fields
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) HGetBytes(_ context.Context, key, field string) ([]byte, bool, error) {
	h, ok := f.hashes[key]
	if !ok {
		return nil, false, nil
	}
	v, ok := h[field].([]byte)
	return v, ok, nil
}

func (f *fakeCache) HMGet(_ context.Context, key string, fields ...string) (map[string]string, error) {
	out := map[string]string{}
	for _, field := range fields {
		if v, ok := f.hashes[key][field].(string); ok {
			out[field] = v
		}
	}
	return out, nil
}

func (f *fakeCache) ZAdd(_ context.Context, key string, id int64) error {
	if f.index[key] == nil {
		f.index[key] = map[int64]bool{}
	}
	f.index[key][id] = true
	return nil
}

func (f *fakeCache) ZRevRangeIDs(_ context.Context, key string, limit int) ([]int64, error) {
	var ids []int64
	for id := range f.index[key] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeCache) ZRem(_ context.Context, key string, ids ...int64) error {
	for _, id := range ids {
		delete(f.index[key], id)
	}
	f.zrem = append(f.zrem, ids...)
	return nil
}

func TestRedisStoreUploadListDownload(t *testing.T) {
	cache := newFakeCache()
	store := NewRedisStore(cache, "test:archive", zap.NewNop())
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	dir := t.TempDir()

	res, err := store.Upload(t.Context(), UploadRequest{
		Name:      "my-followers",
		Files:     []string{writeSnapshotFile(t, dir, `{"v":1}`)},
		RootDir:   dir,
		Retention: time.Hour,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.ID)
	require.Equal(t, time.Hour, cache.ttls["test:archive:item:1"])

	archives, err := store.List(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, archives, 1)
	require.Equal(t, "my-followers", archives[0].Name)
	require.True(t, archives[0].CreatedAt.Equal(base))

	data, err := store.Download(t.Context(), 1)
	require.NoError(t, err)
	content, err := Extract(data, "followers.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"v":1}`, string(content))
}

func TestRedisStorePrunesExpiredIndexEntries(t *testing.T) {
	cache := newFakeCache()
	store := NewRedisStore(cache, "test:archive", zap.NewNop())
	dir := t.TempDir()

	for range 2 {
		_, err := store.Upload(t.Context(), UploadRequest{
			Name:    "my-followers",
			Files:   []string{writeSnapshotFile(t, dir, `{}`)},
			RootDir: dir,
		})
		require.NoError(t, err)
	}
	delete(cache.hashes, "test:archive:item:1")

	archives, err := store.List(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, archives, 1)
	require.Equal(t, int64(2), archives[0].ID)
	require.Equal(t, []int64{1}, cache.zrem)

	_, err = store.Download(t.Context(), 1)
	require.Error(t, err)
}
