package github

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Sorosliu1029/follower-change/internal/constants"
	"github.com/Sorosliu1029/follower-change/internal/util"
	"github.com/Sorosliu1029/follower-change/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Client talks to the GitHub REST and GraphQL APIs with a personal access token.
type Client struct {
	apiURL     string
	graphqlURL string
	httpClient *http.Client
	// plain follows signed redirect URLs without the credential.
	plain  *http.Client
	logger *zap.Logger
}

type ClientConfig struct {
	Token      util.Secret
	APIURL     string
	GraphQLURL string
}

func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Token.IsEmpty() {
		return nil, errors.NewValidationError("github token is required", "token", cfg.Token)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = constants.APIConfig.GitHubAPIURL
	}
	graphqlURL := cfg.GraphQLURL
	if graphqlURL == "" {
		graphqlURL = constants.APIConfig.GitHubGraphQLURL
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token.Reveal()})
	httpClient := oauth2.NewClient(context.Background(), source)
	httpClient.Timeout = constants.APIConfig.Timeout
	// Artifact downloads redirect to blob storage; the token must not follow.
	httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		graphqlURL: graphqlURL,
		httpClient: httpClient,
		plain:      &http.Client{Timeout: constants.APIConfig.Timeout},
		logger:     logger,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, reqBody, respBody any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return errors.NewAPIError("failed to marshal request", 400, map[string]any{
				"url": url,
			}).WithCause(err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{
			"url": url,
		}).WithCause(err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", constants.APIConfig.UserAgent)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError("request failed", 500, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp, url)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return errors.NewAPIError("failed to decode response", 500, map[string]any{
				"url": url,
			}).WithCause(err)
		}
	}

	return nil
}

func statusError(resp *http.Response, url string) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return errors.NewAPIError(
		fmt.Sprintf("GitHub API error: %s", resp.Status),
		resp.StatusCode,
		map[string]any{
			"url":  url,
			"body": string(bodyBytes),
		},
	)
}

// withoutURL strips the request URL that net/http puts into transport errors.
// Signed storage URLs carry their own credential.
func withoutURL(err error) error {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
