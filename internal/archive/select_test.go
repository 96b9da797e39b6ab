package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestLatest(t *testing.T) {
	tests := []struct {
		name     string
		archives []Archive
		wantID   int64
		wantOK   bool
	}{
		{
			name:   "no archives",
			wantOK: false,
		},
		{
			name: "no matching name",
			archives: []Archive{
				{ID: 1, Name: "other", CreatedAt: at("2024-01-01T00:00:00Z")},
			},
			wantOK: false,
		},
		{
			name: "newest by creation time regardless of order",
			archives: []Archive{
				{ID: 9, Name: "my-followers", CreatedAt: at("2024-01-01T00:00:00Z")},
				{ID: 3, Name: "my-followers", CreatedAt: at("2024-03-01T00:00:00Z")},
				{ID: 5, Name: "my-followers", CreatedAt: at("2024-02-01T00:00:00Z")},
			},
			wantID: 3,
			wantOK: true,
		},
		{
			name: "equal timestamps fall back to id",
			archives: []Archive{
				{ID: 7, Name: "my-followers", CreatedAt: at("2024-01-01T00:00:00Z")},
				{ID: 8, Name: "my-followers", CreatedAt: at("2024-01-01T00:00:00Z")},
			},
			wantID: 8,
			wantOK: true,
		},
		{
			name: "missing timestamps fall back to id",
			archives: []Archive{
				{ID: 12, Name: "my-followers"},
				{ID: 4, Name: "my-followers"},
			},
			wantID: 12,
			wantOK: true,
		},
		{
			name: "other names ignored",
			archives: []Archive{
				{ID: 1, Name: "my-followers", CreatedAt: at("2024-01-01T00:00:00Z")},
				{ID: 2, Name: "coverage", CreatedAt: at("2025-01-01T00:00:00Z")},
			},
			wantID: 1,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Latest(tt.archives, "my-followers")
			require.Equal(t, tt.wantOK, ok)
			if ok {
				require.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}
