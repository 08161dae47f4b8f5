package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Notifier posts plain-text messages to an ntfy-style endpoint.
type Notifier struct {
	endpoint string
	client   *http.Client
	title    string
}

// New returns a Notifier, or nil when endpoint is empty. A nil Notifier is
// safe to use and sends nothing.
func New(endpoint, title string, client *http.Client) *Notifier {
	if strings.TrimSpace(endpoint) == "" {
		return nil
	}
	return &Notifier{endpoint: endpoint, client: client, title: title}
}

// ExportFinished announces a completed export.
func (n *Notifier) ExportFinished(ctx context.Context, title string, tabCount int) error {
	if n == nil {
		return nil
	}
	msg := fmt.Sprintf("%s: %d tabs exported", title, tabCount)
	return send(ctx, n.client, n.endpoint, n.title, msg)
}

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	return send(ctx, client, endpoint, "", message)
}

func send(ctx context.Context, client *http.Client, endpoint, title, message string) error {
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")
	if title != "" {
		req.Header.Set("Title", title)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
