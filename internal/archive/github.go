package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/github"
	"go.uber.org/zap"
)

// ArtifactLister is the read side of the GitHub REST client.
type ArtifactLister interface {
	ListArtifacts(ctx context.Context, owner, repo string, perPage int) ([]github.Artifact, error)
	DownloadArtifact(ctx context.Context, owner, repo string, id int64) ([]byte, error)
}

// ArtifactUploader is the write side, served by the Actions results service.
type ArtifactUploader interface {
	Upload(ctx context.Context, name string, content []byte, expiresAt *time.Time) (*github.UploadedArtifact, error)
}

// ArtifactStore keeps archives as workflow artifacts of one repository.
type ArtifactStore struct {
	lister   ArtifactLister
	uploader ArtifactUploader
	owner    string
	repo     string
	logger   *zap.Logger
	now      func() time.Time
}

// NewArtifactStore takes the repository as "owner/name". uploader may be nil
// when the store is only read from.
func NewArtifactStore(lister ArtifactLister, uploader ArtifactUploader, repository string, logger *zap.Logger) (*ArtifactStore, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("repository must look like owner/name, got %q", repository)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactStore{
		lister:   lister,
		uploader: uploader,
		owner:    owner,
		repo:     repo,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (s *ArtifactStore) List(ctx context.Context, limit int) ([]Archive, error) {
	artifacts, err := s.lister.ListArtifacts(ctx, s.owner, s.repo, limit)
	if err != nil {
		return nil, err
	}

	archives := make([]Archive, 0, len(artifacts))
	for _, a := range artifacts {
		if a.Expired {
			s.logger.Debug("Skipping expired artifact", zap.Int64("artifact_id", a.ID))
			continue
		}
		archives = append(archives, Archive{ID: a.ID, Name: a.Name, CreatedAt: a.CreatedAt})
	}
	return archives, nil
}

func (s *ArtifactStore) Download(ctx context.Context, id int64) ([]byte, error) {
	return s.lister.DownloadArtifact(ctx, s.owner, s.repo, id)
}

func (s *ArtifactStore) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("artifact upload is not available outside a workflow run")
	}

	content, items, err := Pack(req.Files, req.RootDir)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.uploader.Upload(ctx, req.Name, content, expiry(s.now(), req.Retention))
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		ArchiveName: uploaded.Name,
		Items:       items,
		ID:          uploaded.ID,
		Size:        uploaded.Size,
	}, nil
}
