package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgnsrekt/tabexport/internal/events"
	"github.com/dgnsrekt/tabexport/internal/exports"
	"github.com/dgnsrekt/tabexport/internal/i18n"
	"github.com/dgnsrekt/tabexport/internal/notify"
	"github.com/dgnsrekt/tabexport/internal/prefs"
	"github.com/dgnsrekt/tabexport/internal/render"
	"github.com/dgnsrekt/tabexport/internal/tabs"
)

// TabSource supplies the tab snapshot for an export.
type TabSource interface {
	Tabs(ctx context.Context) ([]tabs.Tab, error)
	SupportsStacks() bool
	Name() string
}

// Presenter shows a saved export to the user.
type Presenter interface {
	Present(ctx context.Context, path string) error
}

// ExportRequest tunes a single export. Nil Prefs means use the stored ones.
type ExportRequest struct {
	Prefs  *prefs.Prefs
	Locale string
	Open   bool
}

// Service runs exports and manages their results.
type Service struct {
	src       TabSource
	prefs     *prefs.Store
	store     *exports.Store
	catalog   *i18n.Catalog
	presenter Presenter
	notifier  *notify.Notifier
	events    *events.Broker
	now       func() time.Time
}

// Option configures optional Service collaborators.
type Option func(*Service)

func WithPresenter(p Presenter) Option {
	return func(s *Service) { s.presenter = p }
}

func WithNotifier(n *notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithEvents publishes export and preference changes to b.
func WithEvents(b *events.Broker) Option {
	return func(s *Service) { s.events = b }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(src TabSource, prefStore *prefs.Store, store *exports.Store, catalog *i18n.Catalog, opts ...Option) *Service {
	s := &Service{
		src:     src,
		prefs:   prefStore,
		store:   store,
		catalog: catalog,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the default catalog.
func (s *Service) Catalog() *i18n.Catalog {
	return s.catalog
}

func (s *Service) catalogFor(locale string) *i18n.Catalog {
	if strings.TrimSpace(locale) == "" {
		return s.catalog
	}
	return i18n.New(locale)
}

func (s *Service) requireNonEmpty(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return newError(CodeValidation, fieldName+" is required", nil)
	}
	return nil
}

// SupportsStacks reports whether the current source can report stacks.
func (s *Service) SupportsStacks() bool {
	return s.src.SupportsStacks()
}

// Tabs returns the current tab snapshot.
func (s *Service) Tabs(ctx context.Context) ([]tabs.Tab, error) {
	ts, err := s.src.Tabs(ctx)
	if err != nil {
		return nil, newError(CodeSourceUnavailable, "read tabs from "+s.src.Name(), err)
	}
	return ts, nil
}

func (s *Service) GetPrefs(ctx context.Context) (prefs.Prefs, error) {
	p, err := s.prefs.Load()
	if err != nil {
		return prefs.Prefs{}, newError(CodeStoreFailure, "load preferences", err)
	}
	return p, nil
}

func (s *Service) SetPrefs(ctx context.Context, p prefs.Prefs) (prefs.Prefs, error) {
	if err := s.prefs.Save(p); err != nil {
		return prefs.Prefs{}, newError(CodeStoreFailure, "save preferences", err)
	}
	slog.Info("preferences saved", "window", p.Window, "stack", p.Stack, "host", p.Host, "indent", p.Indent)
	s.events.Publish(events.KindPrefsUpdated, p)
	return p, nil
}

// Build renders the page for the current tabs without storing it.
func (s *Service) Build(ctx context.Context, req ExportRequest) ([]byte, exports.Meta, error) {
	ts, err := s.Tabs(ctx)
	if err != nil {
		return nil, exports.Meta{}, err
	}

	p := req.Prefs
	if p == nil {
		stored, err := s.GetPrefs(ctx)
		if err != nil {
			return nil, exports.Meta{}, err
		}
		p = &stored
	}
	cat := s.catalogFor(req.Locale)

	dims := p.Dimensions()
	var notice string
	if dims.Stack && !s.src.SupportsStacks() {
		notice = cat.Lookup(i18n.KeyStackUnavailable)
		slog.Warn("stack grouping unavailable", "source", s.src.Name(), "notice", notice)
		dims.Stack = false
	}

	title := render.FormatTitle(cat.Lookup(i18n.KeyTitle), s.now(), cat.Lookup(i18n.KeyDateTimeLayout))
	doc := render.Render(tabs.Partition(ts, dims), title, render.Options{
		Indent:       p.Indent,
		WindowPrefix: cat.Lookup(i18n.KeyWindowLabel),
		StackPrefix:  cat.Lookup(i18n.KeyStackLabel),
	})
	doc.Lang = cat.Tag().String()

	page, err := render.HTML(doc)
	if err != nil {
		return nil, exports.Meta{}, newError(CodeStoreFailure, "serialize page", err)
	}

	meta := exports.Meta{
		Title:       title,
		Filename:    render.Filename(title),
		Locale:      cat.Tag().String(),
		Source:      s.src.Name(),
		TabCount:    len(ts),
		WindowCount: countWindows(ts),
		ByWindow:    dims.Window,
		ByStack:     dims.Stack,
		ByHost:      dims.Host,
		Indent:      p.Indent,
		SizeBytes:   len(page),
		CreatedAt:   s.now().UTC(),
		Notice:      notice,
	}
	return page, meta, nil
}

// Export builds, stores, and optionally opens a page for the current tabs.
func (s *Service) Export(ctx context.Context, req ExportRequest) (exports.Meta, error) {
	page, meta, err := s.Build(ctx, req)
	if err != nil {
		return exports.Meta{}, err
	}

	meta.ID = exports.NewID()
	meta, err = s.store.Save(meta, page)
	if err != nil {
		return exports.Meta{}, newError(CodeStoreFailure, "save export", err)
	}
	slog.Info("export saved",
		"id", meta.ID,
		"title", meta.Title,
		"tabs", meta.TabCount,
		"windows", meta.WindowCount,
		"by_window", meta.ByWindow,
		"by_stack", meta.ByStack,
		"by_host", meta.ByHost,
		"bytes", meta.SizeBytes,
	)
	s.events.Publish(events.KindExportCreated, meta)

	if err := s.notifier.ExportFinished(ctx, meta.Title, meta.TabCount); err != nil {
		slog.Warn("export notification failed", "id", meta.ID, "error", err)
	}

	if req.Open {
		if err := s.Open(ctx, meta.ID); err != nil {
			return meta, err
		}
	}
	return meta, nil
}

// Open presents a stored export.
func (s *Service) Open(ctx context.Context, id string) error {
	if s.presenter == nil {
		return newError(CodePresentFailure, "no presenter configured", nil)
	}
	if _, err := s.GetExport(ctx, id); err != nil {
		return err
	}
	if err := s.presenter.Present(ctx, s.store.HTMLPath(strings.TrimSpace(id))); err != nil {
		return newError(CodePresentFailure, "open export", err)
	}
	return nil
}

func (s *Service) ListExports(ctx context.Context) ([]exports.Meta, error) {
	metas, err := s.store.List()
	if err != nil {
		return nil, newError(CodeStoreFailure, "list exports", err)
	}
	return metas, nil
}

func (s *Service) GetExport(ctx context.Context, id string) (exports.Meta, error) {
	if err := s.requireNonEmpty(id, "export_id"); err != nil {
		return exports.Meta{}, err
	}
	meta, err := s.store.Get(strings.TrimSpace(id))
	if err != nil {
		return exports.Meta{}, storeErr(err)
	}
	return meta, nil
}

func (s *Service) ReadExportHTML(ctx context.Context, id string) ([]byte, exports.Meta, error) {
	if err := s.requireNonEmpty(id, "export_id"); err != nil {
		return nil, exports.Meta{}, err
	}
	data, meta, err := s.store.ReadHTML(strings.TrimSpace(id))
	if err != nil {
		return nil, exports.Meta{}, storeErr(err)
	}
	return data, meta, nil
}

func (s *Service) DeleteExport(ctx context.Context, id string) error {
	if err := s.requireNonEmpty(id, "export_id"); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if err := s.store.Delete(id); err != nil {
		return storeErr(err)
	}
	s.events.Publish(events.KindExportDeleted, map[string]string{"id": id})
	return nil
}

// CopyExport writes a stored export into dir under its suggested filename,
// made safe for the filesystem, and returns the written path.
func (s *Service) CopyExport(ctx context.Context, id, dir string) (string, error) {
	data, meta, err := s.ReadExportHTML(ctx, id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", newError(CodeStoreFailure, "create output dir", err)
	}
	path := filepath.Join(dir, render.SafeFilename(meta.Title))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", newError(CodeStoreFailure, "write export copy", err)
	}
	return path, nil
}

func storeErr(err error) error {
	if errors.Is(err, exports.ErrNotFound) {
		return newError(CodeExportNotFound, err.Error(), nil)
	}
	if strings.HasPrefix(err.Error(), "invalid export id") {
		return newError(CodeValidation, err.Error(), nil)
	}
	return newError(CodeStoreFailure, fmt.Sprintf("export store: %v", err), err)
}

func countWindows(ts []tabs.Tab) int {
	seen := make(map[int]struct{})
	for _, t := range ts {
		seen[t.WindowID] = struct{}{}
	}
	return len(seen)
}
