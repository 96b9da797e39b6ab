// Package archive persists named zip archives between runs. Backends keep
// every upload as a new archive; readers pick the newest one by name.
package archive

import (
	"context"
	"time"
)

// Archive describes one stored archive. CreatedAt may be unknown.
type Archive struct {
	ID        int64
	Name      string
	CreatedAt *time.Time
}

// UploadRequest names the local files to pack under RootDir.
type UploadRequest struct {
	Name      string
	Files     []string
	RootDir   string
	Retention time.Duration
}

// UploadResult acknowledges an upload.
type UploadResult struct {
	ArchiveName string
	Items       []string
	ID          int64
	Size        int64
}

// Store is implemented by each archive backend.
type Store interface {
	// List returns up to limit recent archives in no particular order.
	List(ctx context.Context, limit int) ([]Archive, error)
	// Download returns the zip content of the archive with the given id.
	Download(ctx context.Context, id int64) ([]byte, error)
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// expiry converts a retention period into an absolute deadline; zero means
// the backend default.
func expiry(now time.Time, retention time.Duration) *time.Time {
	if retention <= 0 {
		return nil
	}
	t := now.Add(retention)
	return &t
}
