package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sorosliu1029/follower-change/pkg/errors"
	"go.uber.org/zap"
)

// Artifact is a workflow artifact as listed by the REST API.
type Artifact struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	SizeInBytes int64      `json:"size_in_bytes"`
	Expired     bool       `json:"expired"`
	CreatedAt   *time.Time `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type artifactList struct {
	TotalCount int        `json:"total_count"`
	Artifacts  []Artifact `json:"artifacts"`
}

// ListArtifacts returns the first page of the repository's artifacts, newest
// first according to the API (callers must not rely on that order).
func (c *Client) ListArtifacts(ctx context.Context, owner, repo string, perPage int) ([]Artifact, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", "1")
	reqURL := fmt.Sprintf("%s/repos/%s/%s/actions/artifacts?%s",
		c.apiURL, url.PathEscape(owner), url.PathEscape(repo), query.Encode())

	var list artifactList
	if err := c.doRequest(ctx, http.MethodGet, reqURL, nil, &list); err != nil {
		return nil, err
	}

	c.logger.Debug("Listed artifacts",
		zap.Int("returned", len(list.Artifacts)),
		zap.Int("total_count", list.TotalCount),
	)
	return list.Artifacts, nil
}

// DownloadArtifact returns the zip archive of the artifact. The API answers
// with a redirect to a signed URL, which is fetched without the token.
func (c *Client) DownloadArtifact(ctx context.Context, owner, repo string, id int64) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/actions/artifacts/%d/zip",
		c.apiURL, url.PathEscape(owner), url.PathEscape(repo), id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.NewAPIError("failed to create request", 500, map[string]any{
			"url": reqURL,
		}).WithCause(err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewAPIError("request failed", 500, map[string]any{
			"url": reqURL,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		location := resp.Header.Get("Location")
		if location == "" {
			return nil, errors.NewAPIError("artifact redirect without location", resp.StatusCode, map[string]any{
				"url": reqURL,
			})
		}
		return c.fetchSigned(ctx, location)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return readBody(resp, reqURL)
	default:
		return nil, statusError(resp, reqURL)
	}
}

func (c *Client) fetchSigned(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, errors.NewAPIError("failed to create request", 500, nil).WithCause(withoutURL(err))
	}

	// The signed URL is a bearer credential of its own; keep it out of errors.
	resp, err := c.plain.Do(req)
	if err != nil {
		return nil, errors.NewAPIError("artifact download failed", 500, nil).WithCause(withoutURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewAPIError(fmt.Sprintf("artifact download error: %s", resp.Status), resp.StatusCode, nil)
	}
	return readBody(resp, "")
}

func readBody(resp *http.Response, reqURL string) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewAPIError("failed to read response", 500, map[string]any{
			"url": reqURL,
		}).WithCause(err)
	}
	return body, nil
}
