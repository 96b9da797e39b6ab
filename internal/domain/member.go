package domain

// Member is one follower account. ID is the only identity; every other field
// may change between runs without affecting the diff.
type Member struct {
	ID           int64   `json:"id"`
	Handle       string  `json:"login"`
	DisplayName  *string `json:"name,omitempty"`
	ProfileURL   string  `json:"url"`
	AvatarURL    string  `json:"avatarUrl"`
	Bio          *string `json:"bio,omitempty"`
	Organization *string `json:"company,omitempty"`
	Location     *string `json:"location,omitempty"`
}

// Label is the display name when one is set, otherwise the handle.
func (m *Member) Label() string {
	if m.DisplayName != nil && *m.DisplayName != "" {
		return *m.DisplayName
	}
	return m.Handle
}

// IndexByID maps each member's id to the member. Later duplicates win.
func IndexByID(members []*Member) map[int64]*Member {
	index := make(map[int64]*Member, len(members))
	for _, m := range members {
		if m == nil {
			continue
		}
		index[m.ID] = m
	}
	return index
}

// UniqueByID drops nil entries and every repeat of an id, keeping the first
// occurrence in order.
func UniqueByID(members []*Member) []*Member {
	seen := make(map[int64]struct{}, len(members))
	out := make([]*Member, 0, len(members))
	for _, m := range members {
		if m == nil {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
