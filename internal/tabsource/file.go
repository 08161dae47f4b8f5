// Package tabsource reads tab snapshots that were saved to disk.
package tabsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgnsrekt/tabexport/internal/tabs"
)

// record accepts both the chrome.tabs field names and Vivaldi's vivExtData.
type record struct {
	URL        string          `json:"url"`
	PendingURL string          `json:"pendingUrl"`
	Title      string          `json:"title"`
	WindowID   int             `json:"windowId"`
	Index      int             `json:"index"`
	ExtData    json.RawMessage `json:"extData"`
	VivExtData json.RawMessage `json:"vivExtData"`
}

// File reads tabs from a JSON file holding either an array of tabs or an
// object with a "tabs" array. Path "-" reads from Stdin.
type File struct {
	Path  string
	Stdin io.Reader
}

func NewFile(path string) *File {
	return &File{Path: path, Stdin: os.Stdin}
}

// SupportsStacks is true: saved snapshots may carry extData.
func (f *File) SupportsStacks() bool { return true }

// Name identifies the source in export metadata.
func (f *File) Name() string { return "file:" + f.Path }

func (f *File) Tabs(ctx context.Context) ([]tabs.Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		data []byte
		err  error
	)
	if f.Path == "-" {
		data, err = io.ReadAll(f.Stdin)
	} else {
		data, err = os.ReadFile(f.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("tabsource: read %s: %w", f.Path, err)
	}
	out, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("tabsource: %s: %w", f.Path, err)
	}
	slog.Debug("tabsource file loaded", "path", f.Path, "count", len(out))
	return out, nil
}

// Decode parses a tab snapshot document.
func Decode(data []byte) ([]tabs.Tab, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var records []record
	if data[0] == '{' {
		var wrapper struct {
			Tabs []record `json:"tabs"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("decode tabs: %w", err)
		}
		records = wrapper.Tabs
	} else if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode tabs: %w", err)
	}

	out := make([]tabs.Tab, 0, len(records))
	for _, r := range records {
		t := tabs.Tab{
			URL:      r.URL,
			Title:    r.Title,
			WindowID: r.WindowID,
			Index:    r.Index,
		}
		if t.URL == "" {
			t.URL = r.PendingURL
		}
		ext := r.VivExtData
		if len(ext) == 0 {
			ext = r.ExtData
		}
		t.ExtData = extString(ext)
		out = append(out, t)
	}
	return out, nil
}

// extString keeps string values as-is. Objects are kept as their JSON text so
// a dump that already decoded extData still yields a parseable string.
func extString(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	s = string(raw)
	return &s
}
