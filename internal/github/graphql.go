package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Sorosliu1029/follower-change/pkg/errors"
)

type graphqlRequest struct {
	Query     string `json:"query"`
	Variables any    `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type graphqlResponse[Data any] struct {
	Data   *Data          `json:"data"`
	Errors []graphqlError `json:"errors,omitempty"`
}

func graphqlQuery[Vars, Data any](ctx context.Context, c *Client, name, query string, variables Vars) (*Data, error) {
	var resp graphqlResponse[Data]
	err := c.doRequest(ctx, http.MethodPost, c.graphqlURL, graphqlRequest{
		Query:     query,
		Variables: variables,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Errors) > 0 {
		messages := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			messages[i] = e.Message
		}
		return nil, errors.NewAPIError(
			fmt.Sprintf("graphql %s: %s", name, strings.Join(messages, "; ")),
			http.StatusOK,
			map[string]any{"query": name},
		)
	}
	if resp.Data == nil {
		return nil, errors.NewAPIError(fmt.Sprintf("graphql %s: empty data", name), http.StatusOK, map[string]any{
			"query": name,
		})
	}

	return resp.Data, nil
}
