package archive

import (
	"context"
	"testing"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/github"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeArtifacts struct {
	artifacts []github.Artifact
	content   map[int64][]byte
	uploads   []string
	expiresAt *time.Time
}

func (f *fakeArtifacts) ListArtifacts(_ context.Context, owner, repo string, _ int) ([]github.Artifact, error) {
	if owner != "octo" || repo != "followers" {
		panic("unexpected repository " + owner + "/" + repo)
	}
	return f.artifacts, nil
}

func (f *fakeArtifacts) DownloadArtifact(_ context.Context, _, _ string, id int64) ([]byte, error) {
	return f.content[id], nil
}

func (f *fakeArtifacts) Upload(_ context.Context, name string, content []byte, expiresAt *time.Time) (*github.UploadedArtifact, error) {
	f.uploads = append(f.uploads, name)
	f.expiresAt = expiresAt
	return &github.UploadedArtifact{ID: 77, Name: name, Size: int64(len(content))}, nil
}

func TestArtifactStoreListSkipsExpired(t *testing.T) {
	fake := &fakeArtifacts{artifacts: []github.Artifact{
		{ID: 1, Name: "my-followers", Expired: true},
		{ID: 2, Name: "my-followers", CreatedAt: at("2024-01-01T00:00:00Z")},
	}}
	store, err := NewArtifactStore(fake, fake, "octo/followers", zap.NewNop())
	require.NoError(t, err)

	archives, err := store.List(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, archives, 1)
	require.Equal(t, int64(2), archives[0].ID)
}

func TestArtifactStoreUpload(t *testing.T) {
	fake := &fakeArtifacts{}
	store, err := NewArtifactStore(fake, fake, "octo/followers", zap.NewNop())
	require.NoError(t, err)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	dir := t.TempDir()
	res, err := store.Upload(t.Context(), UploadRequest{
		Name:      "my-followers",
		Files:     []string{writeSnapshotFile(t, dir, `{}`)},
		RootDir:   dir,
		Retention: 90 * 24 * time.Hour,
	})
	require.NoError(t, err)
	require.Equal(t, int64(77), res.ID)
	require.Equal(t, []string{"my-followers"}, fake.uploads)
	require.NotNil(t, fake.expiresAt)
	require.True(t, fake.expiresAt.Equal(base.Add(90*24*time.Hour)))
}

func TestArtifactStoreRejectsBadRepository(t *testing.T) {
	_, err := NewArtifactStore(&fakeArtifacts{}, nil, "no-slash", zap.NewNop())
	require.Error(t, err)
}

func TestArtifactStoreUploadWithoutUploader(t *testing.T) {
	store, err := NewArtifactStore(&fakeArtifacts{}, nil, "octo/followers", zap.NewNop())
	require.NoError(t, err)
	_, err = store.Upload(t.Context(), UploadRequest{Name: "x"})
	require.Error(t, err)
}
