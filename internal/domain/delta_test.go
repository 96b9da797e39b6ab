package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func members(ids ...int64) []*Member {
	out := make([]*Member, len(ids))
	for i, id := range ids {
		out[i] = &Member{ID: id, Handle: "user" + string(rune('a'+i))}
	}
	return out
}

func ids(ms []*Member) []int64 {
	out := make([]int64, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestDiffScenarios(t *testing.T) {
	testCases := []struct {
		name     string
		previous []*Member
		current  []*Member
		joined   []int64
		left     []int64
	}{
		{
			name:     "one joined one left",
			previous: members(1, 2),
			current:  members(2, 3),
			joined:   []int64{3},
			left:     []int64{1},
		},
		{
			name:     "first run",
			previous: nil,
			current:  members(5, 4, 6),
			joined:   []int64{5, 4, 6},
			left:     []int64{},
		},
		{
			name:     "everyone left",
			previous: members(9, 7, 8),
			current:  []*Member{},
			joined:   []int64{},
			left:     []int64{9, 7, 8},
		},
		{
			name:     "order follows each source",
			previous: members(10, 1, 20, 2),
			current:  members(30, 1, 2, 40),
			joined:   []int64{30, 40},
			left:     []int64{10, 20},
		},
		{
			name:     "both empty",
			previous: nil,
			current:  nil,
			joined:   []int64{},
			left:     []int64{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			delta := Diff(tc.previous, tc.current)
			if diff := cmp.Diff(tc.joined, ids(delta.Joined)); diff != "" {
				t.Errorf("joined mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.left, ids(delta.Left)); diff != "" {
				t.Errorf("left mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffIgnoresNonIdentityFields(t *testing.T) {
	oldBio := "old bio"
	newBio := "new bio"
	newName := "Renamed"

	previous := []*Member{
		{ID: 1, Handle: "alice"},
		{ID: 2, Handle: "bob", Bio: &oldBio},
	}
	current := []*Member{
		{ID: 1, Handle: "alice-renamed", DisplayName: &newName},
		{ID: 2, Handle: "bob", Bio: &newBio},
	}

	delta := Diff(previous, current)
	require.Empty(t, delta.Joined)
	require.Empty(t, delta.Left)
	require.False(t, delta.Changed())
}

func TestDiffIsDisjoint(t *testing.T) {
	sets := [][]*Member{
		nil,
		members(1),
		members(1, 2, 3),
		members(3, 4, 5),
		members(2, 4, 6, 8),
		members(1, 1, 2),
	}

	for _, a := range sets {
		for _, b := range sets {
			delta := Diff(a, b)
			joined := IndexByID(delta.Joined)
			for _, m := range delta.Left {
				_, both := joined[m.ID]
				require.False(t, both, "id %d both joined and left", m.ID)
			}

			prevIndex := IndexByID(a)
			for _, m := range delta.Joined {
				_, ok := prevIndex[m.ID]
				require.False(t, ok)
			}
			currIndex := IndexByID(b)
			for _, m := range delta.Left {
				_, ok := currIndex[m.ID]
				require.False(t, ok)
			}

			self := Diff(a, a)
			require.Empty(t, self.Joined)
			require.Empty(t, self.Left)
		}
	}
}

func TestDiffReportsRepeatedIDsOnce(t *testing.T) {
	delta := Diff(members(5, 5, 6), members(1, 2, 1, 2))
	if diff := cmp.Diff([]int64{1, 2}, ids(delta.Joined)); diff != "" {
		t.Fatalf("joined mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{5, 6}, ids(delta.Left)); diff != "" {
		t.Fatalf("left mismatch (-want +got):\n%s", diff)
	}
}

func TestUniqueByIDKeepsFirst(t *testing.T) {
	in := []*Member{{ID: 1, Handle: "first"}, nil, {ID: 2, Handle: "b"}, {ID: 1, Handle: "second"}}
	got := UniqueByID(in)
	require.Equal(t, []int64{1, 2}, ids(got))
	require.Equal(t, "first", got[0].Handle)
}

func TestDiffUsesFetchedMembersNotTotalCount(t *testing.T) {
	previous := members(1, 2, 3)
	current := make([]*Member, 0, 498)
	for i := int64(1); i <= 498; i++ {
		current = append(current, &Member{ID: i})
	}

	delta := Diff(previous, current)
	delta.TotalCount = 500

	require.Len(t, delta.Joined, 495)
	require.Empty(t, delta.Left)
	require.Equal(t, 500, delta.TotalCount)
}

func TestDecideNotification(t *testing.T) {
	delta := &MembershipDelta{Left: members(1)}

	changed, notify := DecideNotification(RunContext{}, delta)
	require.True(t, changed)
	require.False(t, notify)

	changed, notify = DecideNotification(RunContext{IncludeUnfollowers: true}, delta)
	require.True(t, changed)
	require.True(t, notify)

	joined := &MembershipDelta{Joined: members(2)}
	_, notify = DecideNotification(RunContext{}, joined)
	require.True(t, notify)

	changed, notify = DecideNotification(RunContext{IsFirstRun: true}, joined)
	require.False(t, changed)
	require.False(t, notify)

	changed, notify = DecideNotification(RunContext{RestoreFailed: true, IncludeUnfollowers: true}, delta)
	require.False(t, changed)
	require.False(t, notify)

	changed, notify = DecideNotification(RunContext{}, &MembershipDelta{})
	require.False(t, changed)
	require.False(t, notify)
}

func TestMemberLabel(t *testing.T) {
	empty := ""
	name := "Alice Liddell"

	require.Equal(t, "alice", (&Member{Handle: "alice"}).Label())
	require.Equal(t, "alice", (&Member{Handle: "alice", DisplayName: &empty}).Label())
	require.Equal(t, "Alice Liddell", (&Member{Handle: "alice", DisplayName: &name}).Label())
}
