package github

import (
	"context"

	"github.com/Sorosliu1029/follower-change/internal/domain"
	"go.uber.org/zap"
)

const followersQuery = `
query($first: Int!, $after: String) {
  viewer {
    login
    followers(first: $first, after: $after) {
      nodes {
        databaseId
        login
        name
        url
        avatarUrl
        bio
        company
        location
      }
      pageInfo {
        hasNextPage
        endCursor
      }
      totalCount
    }
  }
}`

type followersVariables struct {
	First int     `json:"first"`
	After *string `json:"after"`
}

type followerNode struct {
	DatabaseID int64   `json:"databaseId"`
	Login      string  `json:"login"`
	Name       *string `json:"name"`
	URL        string  `json:"url"`
	AvatarURL  string  `json:"avatarUrl"`
	Bio        *string `json:"bio"`
	Company    *string `json:"company"`
	Location   *string `json:"location"`
}

type followersData struct {
	Viewer struct {
		Login     string `json:"login"`
		Followers struct {
			Nodes    []followerNode `json:"nodes"`
			PageInfo struct {
				HasNextPage bool    `json:"hasNextPage"`
				EndCursor   *string `json:"endCursor"`
			} `json:"pageInfo"`
			TotalCount int `json:"totalCount"`
		} `json:"followers"`
	} `json:"viewer"`
}

// FollowersPage is one page of the authenticated user's followers.
type FollowersPage struct {
	Viewer      string
	Members     []*domain.Member
	TotalCount  int
	HasNextPage bool
	EndCursor   string
}

// Followers fetches the page that starts after cursor; an empty cursor is the first page.
func (c *Client) Followers(ctx context.Context, pageSize int, cursor string) (*FollowersPage, error) {
	vars := followersVariables{First: pageSize}
	if cursor != "" {
		vars.After = &cursor
	}

	data, err := graphqlQuery[followersVariables, followersData](ctx, c, "followers", followersQuery, vars)
	if err != nil {
		return nil, err
	}

	followers := data.Viewer.Followers
	page := &FollowersPage{
		Viewer:      data.Viewer.Login,
		Members:     make([]*domain.Member, 0, len(followers.Nodes)),
		TotalCount:  followers.TotalCount,
		HasNextPage: followers.PageInfo.HasNextPage,
	}
	if followers.PageInfo.EndCursor != nil {
		page.EndCursor = *followers.PageInfo.EndCursor
	}
	for _, node := range followers.Nodes {
		page.Members = append(page.Members, node.toMember())
	}

	c.logger.Debug("Fetched followers page",
		zap.Int("nodes", len(page.Members)),
		zap.Int("total_count", page.TotalCount),
		zap.Bool("has_next_page", page.HasNextPage),
	)

	return page, nil
}

func (n followerNode) toMember() *domain.Member {
	return &domain.Member{
		ID:           n.DatabaseID,
		Handle:       n.Login,
		DisplayName:  blankToNil(n.Name),
		ProfileURL:   n.URL,
		AvatarURL:    n.AvatarURL,
		Bio:          blankToNil(n.Bio),
		Organization: blankToNil(n.Company),
		Location:     blankToNil(n.Location),
	}
}

// GitHub returns "" rather than null for unset profile fields.
func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
