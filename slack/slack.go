// Package slack posts meal plans and shopping lists to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Formatter is anything that renders itself as plain text, such as a meal plan or a
// grocery list.
type Formatter interface {
	Format(w io.Writer) error
}

type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// Message renders each formatter into one preformatted block, in order.
func Message(parts ...Formatter) (string, error) {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("```\n")
		var body bytes.Buffer
		if err := p.Format(&body); err != nil {
			return "", fmt.Errorf("format message part %d: %w", i+1, err)
		}
		b.WriteString(strings.TrimRight(body.String(), "\n"))
		b.WriteString("\n```")
	}
	return b.String(), nil
}

// Notify posts the rendered parts to channel as one message.
func (c *Client) Notify(ctx context.Context, channel string, parts ...Formatter) error {
	msg, err := Message(parts...)
	if err != nil {
		return err
	}
	return c.PostMessage(ctx, channel, msg)
}
