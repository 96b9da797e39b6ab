package domain

// MembershipDelta is the change between two member lists.
type MembershipDelta struct {
	Joined     []*Member
	Left       []*Member
	TotalCount int
}

func (d *MembershipDelta) Changed() bool {
	return d != nil && (len(d.Joined) > 0 || len(d.Left) > 0)
}

// Diff returns the members of current whose id is absent from previous
// (in current order) and the members of previous whose id is absent from
// current (in previous order). TotalCount is left for the caller to fill from
// the authoritative source. Repeated ids are reported once.
func Diff(previous, current []*Member) *MembershipDelta {
	previous = UniqueByID(previous)
	current = UniqueByID(current)
	previousIndex := IndexByID(previous)
	currentIndex := IndexByID(current)

	delta := &MembershipDelta{
		Joined: make([]*Member, 0),
		Left:   make([]*Member, 0),
	}

	for _, m := range current {
		if _, ok := previousIndex[m.ID]; !ok {
			delta.Joined = append(delta.Joined, m)
		}
	}

	for _, m := range previous {
		if _, ok := currentIndex[m.ID]; !ok {
			delta.Left = append(delta.Left, m)
		}
	}

	return delta
}
