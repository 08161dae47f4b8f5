package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/tabexport/internal/events"
	"github.com/dgnsrekt/tabexport/internal/exports"
	"github.com/dgnsrekt/tabexport/internal/i18n"
	"github.com/dgnsrekt/tabexport/internal/prefs"
	"github.com/dgnsrekt/tabexport/internal/tabs"
)

type fakeSource struct {
	tabs   []tabs.Tab
	err    error
	stacks bool
}

func (f *fakeSource) Tabs(ctx context.Context) ([]tabs.Tab, error) { return f.tabs, f.err }
func (f *fakeSource) SupportsStacks() bool                          { return f.stacks }
func (f *fakeSource) Name() string                                  { return "fake" }

type fakePresenter struct {
	paths []string
	err   error
}

func (f *fakePresenter) Present(ctx context.Context, path string) error {
	f.paths = append(f.paths, path)
	return f.err
}

func strPtr(s string) *string { return &s }

var fixedNow = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func newTestService(t *testing.T, src TabSource, opts ...Option) *Service {
	t.Helper()
	dir := t.TempDir()
	ps, err := prefs.NewStore(filepath.Join(dir, "prefs.json"))
	if err != nil {
		t.Fatalf("prefs.NewStore() error = %v", err)
	}
	es, err := exports.NewStore(filepath.Join(dir, "exports"))
	if err != nil {
		t.Fatalf("exports.NewStore() error = %v", err)
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(src, ps, es, i18n.New("en"), opts...)
}

func sampleTabs() []tabs.Tab {
	return []tabs.Tab{
		{URL: "https://a.com/x", Title: "A", WindowID: 1, Index: 0, ExtData: strPtr(`{"group":"s"}`)},
		{URL: "https://b.com/y", Title: "B", WindowID: 1, Index: 1},
		{URL: "https://a.com/z", Title: "C", WindowID: 2, Index: 0},
	}
}

func codeOf(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

func TestExportStoresPageAndMeta(t *testing.T) {
	svc := newTestService(t, &fakeSource{tabs: sampleTabs()})
	ctx := context.Background()

	meta, err := svc.Export(ctx, ExportRequest{Prefs: &prefs.Prefs{Window: true, Host: true}})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if meta.ID == "" {
		t.Fatalf("Export() meta.ID empty")
	}
	if got, want := meta.Title, "My tabs 1/2/2026, 3:04:05 PM"; got != want {
		t.Fatalf("Title = %q; want %q", got, want)
	}
	if got, want := meta.Filename, meta.Title+".html"; got != want {
		t.Fatalf("Filename = %q; want %q", got, want)
	}
	if meta.TabCount != 3 || meta.WindowCount != 2 {
		t.Fatalf("counts = %d tabs/%d windows; want 3/2", meta.TabCount, meta.WindowCount)
	}
	if !meta.ByWindow || meta.ByStack || !meta.ByHost {
		t.Fatalf("dimensions = %+v; want window+host", meta)
	}

	page, stored, err := svc.ReadExportHTML(ctx, meta.ID)
	if err != nil {
		t.Fatalf("ReadExportHTML() error = %v", err)
	}
	if stored.ID != meta.ID {
		t.Fatalf("stored ID = %q; want %q", stored.ID, meta.ID)
	}
	body := string(page)
	for _, want := range []string{"<h1>My tabs", "Window 1", "Window 2", `href="https://b.com/y"`, `lang="en"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q:\n%s", want, body)
		}
	}
}

func TestExportUsesStoredPrefsWhenNoOverride(t *testing.T) {
	svc := newTestService(t, &fakeSource{tabs: sampleTabs(), stacks: true})
	ctx := context.Background()

	if _, err := svc.SetPrefs(ctx, prefs.Prefs{Stack: true}); err != nil {
		t.Fatalf("SetPrefs() error = %v", err)
	}
	meta, err := svc.Export(ctx, ExportRequest{})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if meta.ByWindow || !meta.ByStack || meta.ByHost {
		t.Fatalf("dimensions = %+v; want stack only", meta)
	}
	if meta.Notice != "" {
		t.Fatalf("Notice = %q; want empty", meta.Notice)
	}
	page, _, err := svc.ReadExportHTML(ctx, meta.ID)
	if err != nil {
		t.Fatalf("ReadExportHTML() error = %v", err)
	}
	if !strings.Contains(string(page), "Stack s") {
		t.Fatalf("page missing stack heading:\n%s", page)
	}
}

func TestExportDropsStacksWhenSourceCannotReportThem(t *testing.T) {
	svc := newTestService(t, &fakeSource{tabs: sampleTabs()})

	meta, err := svc.Export(context.Background(), ExportRequest{Prefs: &prefs.Prefs{Stack: true}})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if meta.ByStack {
		t.Fatalf("ByStack = true; want false")
	}
	if meta.Notice == "" {
		t.Fatalf("Notice empty; want stack notice")
	}
}

func TestExportLocalizesTitleAndLabels(t *testing.T) {
	svc := newTestService(t, &fakeSource{tabs: sampleTabs()})

	meta, err := svc.Export(context.Background(), ExportRequest{Prefs: &prefs.Prefs{Window: true}, Locale: "de-AT"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if got, want := meta.Title, "Meine Tabs 2.1.2026, 15:04:05"; got != want {
		t.Fatalf("Title = %q; want %q", got, want)
	}
	if got, want := meta.Locale, "de"; got != want {
		t.Fatalf("Locale = %q; want %q", got, want)
	}
	page, _, err := svc.ReadExportHTML(context.Background(), meta.ID)
	if err != nil {
		t.Fatalf("ReadExportHTML() error = %v", err)
	}
	if !strings.Contains(string(page), "Fenster 1") {
		t.Fatalf("page missing localized window label:\n%s", page)
	}
}

func TestExportSourceFailure(t *testing.T) {
	svc := newTestService(t, &fakeSource{err: errors.New("no browser")})

	_, err := svc.Export(context.Background(), ExportRequest{})
	if got, want := codeOf(err), CodeSourceUnavailable; got != want {
		t.Fatalf("code = %q; want %q (err=%v)", got, want, err)
	}
	metas, err := svc.ListExports(context.Background())
	if err != nil {
		t.Fatalf("ListExports() error = %v", err)
	}
	if len(metas) != 0 {
		t.Fatalf("ListExports() = %d; want 0", len(metas))
	}
}

func TestExportOpenPresentsStoredPage(t *testing.T) {
	p := &fakePresenter{}
	svc := newTestService(t, &fakeSource{tabs: sampleTabs()}, WithPresenter(p))

	meta, err := svc.Export(context.Background(), ExportRequest{Prefs: &prefs.Prefs{}, Open: true})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(p.paths) != 1 {
		t.Fatalf("presented %d pages; want 1", len(p.paths))
	}
	if got, want := filepath.Base(p.paths[0]), meta.ID+".html"; got != want {
		t.Fatalf("presented %q; want %q", got, want)
	}
}

func TestExportOpenFailureKeepsExport(t *testing.T) {
	p := &fakePresenter{err: errors.New("target refused")}
	svc := newTestService(t, &fakeSource{tabs: sampleTabs()}, WithPresenter(p))

	meta, err := svc.Export(context.Background(), ExportRequest{Prefs: &prefs.Prefs{}, Open: true})
	if got, want := codeOf(err), CodePresentFailure; got != want {
		t.Fatalf("code = %q; want %q", got, want)
	}
	if _, err := svc.GetExport(context.Background(), meta.ID); err != nil {
		t.Fatalf("GetExport() error = %v; want stored export", err)
	}
}

func TestOpenWithoutPresenter(t *testing.T) {
	svc := newTestService(t, &fakeSource{})
	err := svc.Open(context.Background(), exports.NewID())
	if got, want := codeOf(err), CodePresentFailure; got != want {
		t.Fatalf("code = %q; want %q", got, want)
	}
}

func TestExportLookupErrors(t *testing.T) {
	svc := newTestService(t, &fakeSource{})
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "blank", id: "  ", want: CodeValidation},
		{name: "malformed", id: "../etc/passwd", want: CodeValidation},
		{name: "missing", id: exports.NewID(), want: CodeExportNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetExport(ctx, tc.id)
			if got := codeOf(err); got != tc.want {
				t.Fatalf("GetExport(%q) code = %q; want %q (err=%v)", tc.id, got, tc.want, err)
			}
			if got := codeOf(svc.DeleteExport(ctx, tc.id)); got != tc.want {
				t.Fatalf("DeleteExport(%q) code = %q; want %q", tc.id, got, tc.want)
			}
		})
	}
}

func TestDeleteExport(t *testing.T) {
	svc := newTestService(t, &fakeSource{tabs: sampleTabs()})
	ctx := context.Background()

	meta, err := svc.Export(ctx, ExportRequest{Prefs: &prefs.Prefs{}})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := svc.DeleteExport(ctx, meta.ID); err != nil {
		t.Fatalf("DeleteExport() error = %v", err)
	}
	if _, err := svc.GetExport(ctx, meta.ID); codeOf(err) != CodeExportNotFound {
		t.Fatalf("GetExport() after delete err = %v; want not found", err)
	}
}

func TestCopyExportUsesSafeFilename(t *testing.T) {
	svc := newTestService(t, &fakeSource{tabs: sampleTabs()})
	ctx := context.Background()

	meta, err := svc.Export(ctx, ExportRequest{Prefs: &prefs.Prefs{}})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := filepath.Join(t.TempDir(), "out")
	path, err := svc.CopyExport(ctx, meta.ID, out)
	if err != nil {
		t.Fatalf("CopyExport() error = %v", err)
	}
	if got, want := filepath.Base(path), "My tabs 1_2_2026, 3_04_05 PM.html"; got != want {
		t.Fatalf("copy name = %q; want %q", got, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "<!DOCTYPE html>") {
		t.Fatalf("copy does not look like a page: %q", data[:min(len(data), 40)])
	}
}

func TestBuildEmptyInputRendersTitleOnly(t *testing.T) {
	svc := newTestService(t, &fakeSource{stacks: true})

	page, meta, err := svc.Build(context.Background(), ExportRequest{Prefs: &prefs.Prefs{Window: true, Stack: true, Host: true}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if meta.TabCount != 0 || meta.WindowCount != 0 {
		t.Fatalf("counts = %+v; want zero", meta)
	}
	if strings.Contains(string(page), "<div") {
		t.Fatalf("page contains containers for empty input:\n%s", page)
	}
}

func TestExportPublishesEvents(t *testing.T) {
	b := events.NewBroker()
	_, ch := b.Subscribe()
	svc := newTestService(t, &fakeSource{tabs: sampleTabs()}, WithEvents(b))
	ctx := context.Background()

	meta, err := svc.Export(ctx, ExportRequest{Prefs: &prefs.Prefs{}})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := svc.DeleteExport(ctx, meta.ID); err != nil {
		t.Fatalf("DeleteExport() error = %v", err)
	}

	created := <-ch
	if created.Kind != events.KindExportCreated || !strings.Contains(created.Data, meta.ID) {
		t.Fatalf("first event = %+v", created)
	}
	deleted := <-ch
	if deleted.Kind != events.KindExportDeleted || deleted.Data != `{"id":"`+meta.ID+`"}` {
		t.Fatalf("second event = %+v", deleted)
	}
}
