// Package present opens finished exports for the user.
package present

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Browser opens pages in a new tab of an already running browser.
type Browser struct {
	cdpURL  string
	timeout time.Duration
}

func NewBrowser(cdpURL string, timeout time.Duration) *Browser {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Browser{cdpURL: cdpURL, timeout: timeout}
}

// Present opens the file at path in a new tab. The CDP connection and the
// scratch tab chromedp needs to reach the browser are released before it
// returns; the opened tab stays.
func (b *Browser) Present(ctx context.Context, path string) error {
	pageURL, err := FileURL(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, b.cdpURL)
	defer allocCancel()

	tempCtx, tempCancel := chromedp.NewContext(allocCtx)
	defer tempCancel()

	if err := chromedp.Run(tempCtx); err != nil {
		return fmt.Errorf("present: connect to browser: %w", err)
	}

	var id target.ID
	err = chromedp.Run(tempCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		c := chromedp.FromContext(ctx)
		var err error
		id, err = target.CreateTarget(pageURL).Do(cdp.WithExecutor(ctx, c.Browser))
		return err
	}))
	if err != nil {
		return fmt.Errorf("present: open %s: %w", pageURL, err)
	}

	slog.Info("export opened in browser", "target_id", id, "url", pageURL)
	return nil
}

// FileURL converts a filesystem path into an absolute file:// URL.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("present: resolve %s: %w", path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
