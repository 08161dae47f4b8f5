package cdpcontrol

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/dgnsrekt/tabexport/internal/tabs"
)

// vivaldiUIPrefix identifies Vivaldi's own browser UI page, which can call
// the chrome.tabs extension API and sees per-tab stack metadata.
const vivaldiUIPrefix = "chrome-extension://mpognobbkildjkofajifpdfhcoklimli/"

// jsQueryTabs returns every tab as a JSON string, including Vivaldi's extData.
const jsQueryTabs = `new Promise((resolve, reject) => {
  try {
    chrome.tabs.query({}, (all) => resolve(JSON.stringify(all.map((t) => ({
      url: t.url || t.pendingUrl || "",
      title: t.title || "",
      windowId: t.windowId,
      index: t.index,
      extData: (t.vivExtData !== undefined ? t.vivExtData : t.extData) ?? null,
    })))));
  } catch (e) {
    reject(e);
  }
})`

// Client reads the current tab list from a browser over CDP.
type Client struct {
	cdpURL      string
	tabFilter   string
	evalTimeout time.Duration

	mu      sync.Mutex
	cdp     *rawCDP
	browser BrowserInfo
}

func NewClient(cdpURL, tabFilter string, evalTimeout time.Duration) *Client {
	if evalTimeout <= 0 {
		evalTimeout = 5 * time.Second
	}
	return &Client{
		cdpURL:      cdpURL,
		tabFilter:   strings.ToLower(strings.TrimSpace(tabFilter)),
		evalTimeout: evalTimeout,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.cdpURL == "" {
		return newError(CodeCDPUnavailable, "missing CDP URL", nil)
	}

	slog.Info("cdpcontrol connect start", "cdp_url", c.cdpURL)
	c.cleanupLocked()

	cdp := newRawCDP(c.cdpURL)
	info, err := cdp.version(ctx)
	if err != nil {
		return newError(CodeCDPUnavailable, "read browser version failed", err)
	}
	if err := cdp.connect(ctx, info.WebSocketDebuggerURL); err != nil {
		return newError(CodeCDPUnavailable, "connect to CDP failed", err)
	}

	c.cdp = cdp
	c.browser = BrowserInfo{
		Product:         info.Browser,
		ProtocolVersion: info.ProtocolVersion,
		UserAgent:       info.UserAgent,
		Vivaldi:         isVivaldi(info),
	}
	slog.Info("cdpcontrol connect ok", "cdp_url", c.cdpURL, "browser", info.Browser, "vivaldi", c.browser.Vivaldi)
	return nil
}

func isVivaldi(info versionInfo) bool {
	return strings.Contains(strings.ToLower(info.Browser), "vivaldi") ||
		strings.Contains(strings.ToLower(info.UserAgent), "vivaldi")
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupLocked()
	return nil
}

func (c *Client) cleanupLocked() {
	if c.cdp != nil {
		c.cdp.close()
		c.cdp = nil
	}
}

// Browser returns what was learned about the browser at connect time.
func (c *Client) Browser() BrowserInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.browser
}

func (c *Client) Name() string {
	return "cdp:" + c.cdpURL
}

// SupportsStacks reports whether tab stacks can be read from this browser.
func (c *Client) SupportsStacks() bool {
	return c.Browser().Vivaldi
}

func (c *Client) ensureConnected(ctx context.Context) (*rawCDP, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cdp == nil {
		if err := c.connectLocked(ctx); err != nil {
			return nil, err
		}
	}
	return c.cdp, nil
}

// Tabs returns a snapshot of the open tabs. On Vivaldi the tab list comes
// from the browser UI so stack metadata is included; elsewhere page targets
// are listed and each is asked for its window.
func (c *Client) Tabs(ctx context.Context) ([]tabs.Tab, error) {
	cdp, err := c.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}

	targets, err := cdp.getTargets(ctx)
	if err != nil {
		c.reset()
		return nil, newError(CodeCDPUnavailable, "list targets failed", err)
	}

	var out []tabs.Tab
	if c.SupportsStacks() {
		if ui := findVivaldiUI(targets); ui != nil {
			out, err = c.queryTabs(ctx, cdp, ui.TargetID)
			if err == nil {
				out = c.filter(out)
				slog.Debug("cdpcontrol tabs via browser ui", "count", len(out))
				return out, nil
			}
			slog.Warn("cdpcontrol browser ui tab query failed, listing targets", "error", err)
		}
	}

	out, err = c.tabsFromTargets(ctx, cdp, targets)
	if err != nil {
		return nil, err
	}
	out = c.filter(out)
	slog.Debug("cdpcontrol tabs via targets", "count", len(out))
	return out, nil
}

func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupLocked()
}

func findVivaldiUI(targets []*target.Info) *target.Info {
	for _, t := range targets {
		if t != nil && strings.HasPrefix(t.URL, vivaldiUIPrefix) && strings.Contains(t.URL, "browser.html") {
			return t
		}
	}
	return nil
}

func (c *Client) queryTabs(ctx context.Context, cdp *rawCDP, id target.ID) ([]tabs.Tab, error) {
	sessionID, err := cdp.attachToTarget(ctx, id)
	if err != nil {
		return nil, newError(CodeEvalFailure, "attach to browser ui failed", err)
	}
	defer func() {
		detachCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := cdp.detachFromTarget(detachCtx, sessionID); err != nil {
			slog.Debug("cdpcontrol detach cleanup failed", "session_id", sessionID, "error", err)
		}
	}()

	evalCtx, cancel := context.WithTimeout(ctx, c.evalTimeout)
	defer cancel()
	raw, err := cdp.evaluate(evalCtx, sessionID, jsQueryTabs)
	if err != nil {
		if evalCtx.Err() == context.DeadlineExceeded {
			return nil, newError(CodeEvalTimeout, "tab query timed out", err)
		}
		return nil, newError(CodeEvalFailure, "tab query failed", err)
	}

	var out []tabs.Tab
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, newError(CodeEvalFailure, "decode tab query result", err)
	}
	return out, nil
}

// tabsFromTargets converts page targets into tabs. Index is the position of
// the page among the pages of its window, in the order the browser lists them.
func (c *Client) tabsFromTargets(ctx context.Context, cdp *rawCDP, targets []*target.Info) ([]tabs.Tab, error) {
	next := make(map[int]int)
	var out []tabs.Tab
	for _, t := range targets {
		if !isTabTarget(t) {
			continue
		}
		windowID, err := cdp.windowForTarget(ctx, t.TargetID)
		if err != nil {
			slog.Debug("cdpcontrol window lookup failed", "target_id", t.TargetID, "error", err)
			windowID = 0
		}
		w := int(windowID)
		out = append(out, tabs.Tab{
			URL:      t.URL,
			Title:    t.Title,
			WindowID: w,
			Index:    next[w],
		})
		next[w]++
	}
	if ctx.Err() != nil {
		return nil, newError(CodeCDPUnavailable, "tab listing interrupted", ctx.Err())
	}
	return out, nil
}

func isTabTarget(t *target.Info) bool {
	if t == nil || t.Type != "page" {
		return false
	}
	return !strings.HasPrefix(t.URL, "devtools://") && !strings.HasPrefix(t.URL, vivaldiUIPrefix)
}

func (c *Client) filter(in []tabs.Tab) []tabs.Tab {
	if c.tabFilter == "" {
		return in
	}
	out := in[:0:0]
	for _, t := range in {
		if strings.Contains(strings.ToLower(t.URL), c.tabFilter) {
			out = append(out, t)
		}
	}
	return out
}
