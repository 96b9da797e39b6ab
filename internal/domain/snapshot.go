package domain

import "time"

// Snapshot is the member list persisted between runs.
type Snapshot struct {
	CapturedAt time.Time `json:"capturedAt"`
	Members    []*Member `json:"members"`
}

// RestoreResult describes what was recovered from the archive store.
//
// IsFirstRun is set only when no archive with the expected name exists.
// RestoreFailed is set when an archive existed (or the listing itself failed)
// but could not be turned into a valid snapshot.
type RestoreResult struct {
	CapturedAt    *time.Time
	Members       []*Member
	IsFirstRun    bool
	RestoreFailed bool
	ArchiveID     int64
}

// HasBaseline reports whether the restored members can be diffed against.
func (r *RestoreResult) HasBaseline() bool {
	return r != nil && !r.IsFirstRun && !r.RestoreFailed
}
