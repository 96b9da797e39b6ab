// Package follower walks the paginated follower connection of the
// authenticated account.
package follower

import (
	"context"
	"fmt"

	"github.com/Sorosliu1029/follower-change/internal/constants"
	"github.com/Sorosliu1029/follower-change/internal/domain"
	"github.com/Sorosliu1029/follower-change/internal/github"
	"go.uber.org/zap"
)

// PageSource returns one page of followers starting after cursor.
type PageSource interface {
	Followers(ctx context.Context, pageSize int, cursor string) (*github.FollowersPage, error)
}

// Result is the full follower list of one run.
type Result struct {
	Viewer     string
	Members    []*domain.Member
	TotalCount int
	Pages      int
}

type Fetcher struct {
	source PageSource
	logger *zap.Logger
}

func NewFetcher(source PageSource, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{source: source, logger: logger}
}

// FetchAll requests pages until the connection reports no next page. Errors
// are returned as-is; there are no retries.
func (f *Fetcher) FetchAll(ctx context.Context, pageSize int) (*Result, error) {
	if pageSize <= 0 {
		pageSize = constants.PaginationConfig.FollowersPerPage
	}

	result := &Result{Members: make([]*domain.Member, 0, pageSize)}
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := f.source.Followers(ctx, pageSize, cursor)
		if err != nil {
			return nil, err
		}
		result.Pages++
		result.Viewer = page.Viewer
		result.TotalCount = page.TotalCount
		result.Members = append(result.Members, page.Members...)

		if !page.HasNextPage {
			break
		}
		if page.EndCursor == "" {
			return nil, fmt.Errorf("followers page %d reports a next page without an end cursor", result.Pages)
		}
		cursor = page.EndCursor
	}

	f.logger.Info("Fetched followers",
		zap.String("viewer", result.Viewer),
		zap.Int("members", len(result.Members)),
		zap.Int("total_count", result.TotalCount),
		zap.Int("pages", result.Pages),
	)
	return result, nil
}
