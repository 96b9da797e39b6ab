package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/archive"
	"github.com/Sorosliu1029/follower-change/internal/domain"
	"go.uber.org/zap"
)

type WriterConfig struct {
	WorkDir     string
	FileName    string
	ArchiveName string
	Retention   time.Duration
}

// Writer saves the current snapshot locally and uploads it as a new archive.
type Writer struct {
	archives archive.Store
	cfg      WriterConfig
	logger   *zap.Logger
}

func NewWriter(archives archive.Store, cfg WriterConfig, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{archives: archives, cfg: cfg, logger: logger}
}

// Persist writes the snapshot file and returns its path. Repeated ids are
// written once so the file always decodes on the next run.
func (w *Writer) Persist(members []*domain.Member, capturedAt time.Time) (string, error) {
	unique := domain.UniqueByID(members)
	if dropped := len(members) - len(unique); dropped > 0 {
		w.logger.Warn("Dropped repeated members before writing snapshot", zap.Int("dropped", dropped))
	}
	members = unique

	data, err := Encode(&domain.Snapshot{CapturedAt: capturedAt, Members: members})
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.cfg.WorkDir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	path := filepath.Join(w.cfg.WorkDir, w.cfg.FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	w.logger.Debug("Snapshot written", zap.String("path", path), zap.Int("members", len(members)))
	return path, nil
}

// Upload stores the file at path as a new archive.
func (w *Writer) Upload(ctx context.Context, path string) (*archive.UploadResult, error) {
	res, err := w.archives.Upload(ctx, archive.UploadRequest{
		Name:      w.cfg.ArchiveName,
		Files:     []string{path},
		RootDir:   w.cfg.WorkDir,
		Retention: w.cfg.Retention,
	})
	if err != nil {
		return nil, fmt.Errorf("upload snapshot archive: %w", err)
	}

	w.logger.Info("Snapshot archive uploaded",
		zap.String("archive_name", res.ArchiveName),
		zap.Int64("archive_id", res.ID),
		zap.Int64("size", res.Size),
		zap.Strings("items", res.Items),
	)
	return res, nil
}
