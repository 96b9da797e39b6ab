// Package snapshot persists the follower list between runs and restores the
// previous one from the archive store.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/domain"
	"github.com/Sorosliu1029/follower-change/internal/util"
	"github.com/Sorosliu1029/follower-change/pkg/errors"
)

type fileV2 struct {
	CapturedAt string           `json:"capturedAt"`
	Members    []*domain.Member `json:"members"`
}

// fileV1 is the layout written by earlier releases.
type fileV1 struct {
	SnapshotAt string `json:"snapshotAt"`
	Followers  []struct {
		DatabaseID int64   `json:"databaseId"`
		Login      string  `json:"login"`
		AvatarURL  string  `json:"avatarUrl"`
		URL        string  `json:"url"`
		Name       *string `json:"name"`
		Bio        *string `json:"bio"`
		Company    *string `json:"company"`
		Location   *string `json:"location"`
	} `json:"followers"`
}

// Encode renders s as indented JSON. The capture time is stored in UTC at
// second precision. Members that Decode would reject are refused here too.
func Encode(s *domain.Snapshot) ([]byte, error) {
	members := s.Members
	if members == nil {
		members = []*domain.Member{}
	}
	if err := validate(&domain.Snapshot{Members: members}); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(fileV2{
		CapturedAt: util.FormatISO(s.CapturedAt),
		Members:    members,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates a snapshot file in either layout. Any problem
// is reported as a SnapshotError; a partially valid file is never returned.
func Decode(data []byte) (*domain.Snapshot, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.NewSnapshotError("snapshot is not a JSON object", errors.SnapshotMalformed, err)
	}

	var (
		snap *domain.Snapshot
		err  error
	)
	switch {
	case probe["capturedAt"] != nil && isArray(probe["members"]):
		snap, err = decodeV2(data)
	case probe["snapshotAt"] != nil && isArray(probe["followers"]):
		snap, err = decodeV1(data)
	default:
		return nil, errors.NewSnapshotError("snapshot lacks capture time or member list", errors.SnapshotInvalid, nil)
	}
	if err != nil {
		return nil, err
	}

	if err := validate(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func decodeV2(data []byte) (*domain.Snapshot, error) {
	var f fileV2
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
		return nil, errors.NewSnapshotError("snapshot members are malformed", errors.SnapshotMalformed, err)
	}
	capturedAt, err := parseTime(f.CapturedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Snapshot{CapturedAt: capturedAt, Members: f.Members}, nil
}

func decodeV1(data []byte) (*domain.Snapshot, error) {
	var f fileV1
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.NewSnapshotError("legacy snapshot is malformed", errors.SnapshotMalformed, err)
	}
	capturedAt, err := parseTime(f.SnapshotAt)
	if err != nil {
		return nil, err
	}

	members := make([]*domain.Member, 0, len(f.Followers))
	for _, fl := range f.Followers {
		members = append(members, &domain.Member{
			ID:           fl.DatabaseID,
			Handle:       fl.Login,
			DisplayName:  util.StringPtr(util.Deref(fl.Name)),
			ProfileURL:   fl.URL,
			AvatarURL:    fl.AvatarURL,
			Bio:          util.StringPtr(util.Deref(fl.Bio)),
			Organization: util.StringPtr(util.Deref(fl.Company)),
			Location:     util.StringPtr(util.Deref(fl.Location)),
		})
	}
	return &domain.Snapshot{CapturedAt: capturedAt, Members: members}, nil
}

// isArray reports whether raw is a JSON array. A null list is not an empty one.
func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errors.NewSnapshotError("snapshot capture time is not ISO-8601", errors.SnapshotInvalid, err)
	}
	return t.UTC(), nil
}

func validate(s *domain.Snapshot) error {
	seen := make(map[int64]struct{}, len(s.Members))
	for i, m := range s.Members {
		if m == nil {
			return errors.NewSnapshotError(fmt.Sprintf("member %d is null", i), errors.SnapshotInvalid, nil)
		}
		if m.ID == 0 || m.Handle == "" {
			return errors.NewSnapshotError(fmt.Sprintf("member %d lacks id or login", i), errors.SnapshotInvalid, nil)
		}
		if _, dup := seen[m.ID]; dup {
			return errors.NewSnapshotError(fmt.Sprintf("member id %d appears twice", m.ID), errors.SnapshotInvalid, nil)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}
