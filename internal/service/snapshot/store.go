package snapshot

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/Sorosliu1029/follower-change/internal/archive"
	"github.com/Sorosliu1029/follower-change/internal/constants"
	"github.com/Sorosliu1029/follower-change/internal/domain"
	"github.com/Sorosliu1029/follower-change/pkg/errors"
	"go.uber.org/zap"
)

// Store restores the previous snapshot from an archive backend.
type Store struct {
	archives  archive.Store
	fileName  string
	listLimit int
	logger    *zap.Logger
}

type StoreConfig struct {
	FileName  string
	ListLimit int
}

func NewStore(archives archive.Store, cfg StoreConfig, logger *zap.Logger) *Store {
	if cfg.FileName == "" {
		cfg.FileName = constants.ArtifactConfig.FileName
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = constants.PaginationConfig.ArchiveListLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{archives: archives, fileName: cfg.FileName, listLimit: cfg.ListLimit, logger: logger}
}

// RestoreLatest never fails. A missing archive is a first run; anything that
// goes wrong while reading an archive yields a degraded result with no members.
func (s *Store) RestoreLatest(ctx context.Context, name string) *domain.RestoreResult {
	log := s.logger.With(zap.String("archive_name", name))

	archives, err := s.archives.List(ctx, s.listLimit)
	if err != nil {
		log.Error("Failed to list snapshot archives", zap.Error(err))
		return degraded(0)
	}

	latest, ok := archive.Latest(archives, name)
	if !ok {
		log.Info("No previous snapshot archive, treating as first run", zap.Int("listed", len(archives)))
		return &domain.RestoreResult{IsFirstRun: true, Members: []*domain.Member{}}
	}
	log = log.With(zap.Int64("archive_id", latest.ID))

	data, err := s.archives.Download(ctx, latest.ID)
	if err != nil {
		log.Error("Failed to download snapshot archive", zap.Error(err))
		return degraded(latest.ID)
	}

	content, err := extractSnapshot(data, s.fileName)
	if err != nil {
		log.Error("Failed to extract snapshot file", zap.String("file", s.fileName), zap.Error(err))
		return degraded(latest.ID)
	}

	snap, err := Decode(content)
	if err != nil {
		log.Error("Failed to decode snapshot", zap.Error(err))
		return degraded(latest.ID)
	}

	capturedAt := snap.CapturedAt
	log.Info("Restored previous snapshot",
		zap.Int("members", len(snap.Members)),
		zap.Time("captured_at", capturedAt),
	)
	return &domain.RestoreResult{
		CapturedAt: &capturedAt,
		Members:    snap.Members,
		ArchiveID:  latest.ID,
	}
}

// extractSnapshot reads the snapshot entry out of a downloaded archive.
func extractSnapshot(data []byte, fileName string) ([]byte, error) {
	content, err := archive.Extract(data, fileName)
	if stderrors.Is(err, archive.ErrEntryNotFound) {
		return nil, errors.NewSnapshotError(fmt.Sprintf("archive has no %s", fileName), errors.SnapshotMissingEntry, err)
	}
	if err != nil {
		return nil, errors.NewSnapshotError("archive is not a readable zip", errors.SnapshotMalformed, err)
	}
	return content, nil
}

func degraded(id int64) *domain.RestoreResult {
	return &domain.RestoreResult{RestoreFailed: true, Members: []*domain.Member{}, ArchiveID: id}
}
