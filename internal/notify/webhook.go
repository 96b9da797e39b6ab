package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Sorosliu1029/follower-change/internal/adapter"
	"github.com/Sorosliu1029/follower-change/internal/constants"
)

type webhookPayload struct {
	Subject          string `json:"subject"`
	Login            string `json:"login"`
	Markdown         string `json:"markdown"`
	Text             string `json:"text"`
	NewFollowerCount int    `json:"newFollowerCount"`
	UnfollowerCount  int    `json:"unfollowerCount"`
	TotalCount       int    `json:"totalCount"`
}

// WebhookNotifier posts the Markdown report as JSON.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: constants.NotificationConfig.SendTimeout}
	}
	return &WebhookNotifier{url: url, client: client}
}

func (n *WebhookNotifier) Name() string { return "webhook" }

func (n *WebhookNotifier) Notify(ctx context.Context, msg *adapter.Message) error {
	body, err := json.Marshal(webhookPayload{
		Subject:          msg.Subject,
		Login:            msg.SubjectHandle,
		Markdown:         msg.Markdown,
		Text:             msg.PlainText,
		NewFollowerCount: msg.NewFollowerCount,
		UnfollowerCount:  msg.UnfollowerCount,
		TotalCount:       msg.TotalCount,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", constants.APIConfig.UserAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
