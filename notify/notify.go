// Package notify is the operational sink for trust-and-safety events which a
// human should see: audit-log write failures, high-severity flags.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

type Notifier interface {
	Send(ctx context.Context, msg string) error
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

// SlackNotifier posts simple messages to a slack "incoming webhook". Sends are
// throttled; excess messages during an abuse storm are dropped rather than
// queued, since the channel only needs a sample.
type SlackNotifier struct {
	WebhookURL string
	Limiter    *rate.Limiter
	Client     *http.Client
}

var _ Notifier = (*SlackNotifier)(nil)

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		WebhookURL: webhookURL,
		Limiter:    rate.NewLimiter(rate.Limit(1), 10),
		Client:     http.DefaultClient,
	}
}

func (n *SlackNotifier) Send(ctx context.Context, msg string) error {
	if n.Limiter != nil && !n.Limiter.Allow() {
		return nil
	}

	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}
