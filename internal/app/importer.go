package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/archive"
	"github.com/Sorosliu1029/follower-change/internal/service/snapshot"
	"go.uber.org/zap"
)

// ImportResult describes a snapshot file pushed into the archive store.
type ImportResult struct {
	Members    int
	CapturedAt time.Time
	Upload     *archive.UploadResult
}

// ImportSnapshot validates a local snapshot file, rewrites it in the current
// layout and uploads it as the newest archive. With dryRun only the
// validation runs.
func ImportSnapshot(ctx context.Context, writer SnapshotWriter, path string, dryRun bool, logger *zap.Logger) (*ImportResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	result := &ImportResult{Members: len(snap.Members), CapturedAt: snap.CapturedAt}
	if dryRun {
		logger.Info("Snapshot is valid, skipping upload (dry run)",
			zap.String("path", path),
			zap.Int("members", result.Members),
			zap.Time("captured_at", result.CapturedAt),
		)
		return result, nil
	}

	written, err := writer.Persist(snap.Members, snap.CapturedAt)
	if err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	result.Upload, err = writer.Upload(ctx, written)
	if err != nil {
		return nil, err
	}

	logger.Info("Snapshot imported",
		zap.String("path", path),
		zap.Int("members", result.Members),
		zap.Int64("archive_id", result.Upload.ID),
	)
	return result, nil
}
