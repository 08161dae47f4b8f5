package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgnsrekt/tabexport/internal/cdpcontrol"
	"github.com/dgnsrekt/tabexport/internal/controller"
	"github.com/dgnsrekt/tabexport/internal/exports"
	"github.com/dgnsrekt/tabexport/internal/prefs"
	"github.com/dgnsrekt/tabexport/internal/tabs"
)

const knownID = "0b8f7f5e-3c1a-4a55-9d0e-6f2f1b9c7a10"

type stubService struct {
	tabsErr   error
	prefs     prefs.Prefs
	lastReq   controller.ExportRequest
	deleted   []string
	openedIDs []string
}

func (s *stubService) SupportsStacks() bool { return true }

func (s *stubService) Tabs(ctx context.Context) ([]tabs.Tab, error) {
	if s.tabsErr != nil {
		return nil, s.tabsErr
	}
	return []tabs.Tab{{URL: "https://a.com/", Title: "A", WindowID: 1}}, nil
}

func (s *stubService) GetPrefs(ctx context.Context) (prefs.Prefs, error) { return s.prefs, nil }

func (s *stubService) SetPrefs(ctx context.Context, p prefs.Prefs) (prefs.Prefs, error) {
	s.prefs = p
	return p, nil
}

func (s *stubService) Build(ctx context.Context, req controller.ExportRequest) ([]byte, exports.Meta, error) {
	s.lastReq = req
	return []byte("<!DOCTYPE html><html></html>"), exports.Meta{Title: "My tabs", Filename: "My tabs.html"}, nil
}

func (s *stubService) Export(ctx context.Context, req controller.ExportRequest) (exports.Meta, error) {
	s.lastReq = req
	return exports.Meta{ID: knownID, Title: "My tabs", Filename: "My tabs.html", TabCount: 1}, nil
}

func (s *stubService) Open(ctx context.Context, id string) error {
	s.openedIDs = append(s.openedIDs, id)
	return nil
}

func (s *stubService) ListExports(ctx context.Context) ([]exports.Meta, error) { return nil, nil }

func (s *stubService) GetExport(ctx context.Context, id string) (exports.Meta, error) {
	if id != knownID {
		return exports.Meta{}, &controller.CodedError{Code: controller.CodeExportNotFound, Message: "export not found"}
	}
	return exports.Meta{ID: id, Title: "My tabs"}, nil
}

func (s *stubService) ReadExportHTML(ctx context.Context, id string) ([]byte, exports.Meta, error) {
	meta, err := s.GetExport(ctx, id)
	if err != nil {
		return nil, exports.Meta{}, err
	}
	meta.Filename = "My tabs 1/2/2026.html"
	return []byte("<!DOCTYPE html><h1>My tabs</h1>"), meta, nil
}

func (s *stubService) DeleteExport(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func serve(t *testing.T, svc Service, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewServer(svc, "Tab Export", nil)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestDocsDarkMode(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodGet, "/docs", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, `data-theme="dark"`) {
		t.Fatalf("docs missing dark theme marker")
	}
	if !strings.Contains(body, "<title>Tab Export API</title>") {
		t.Fatalf("docs missing title")
	}
}

func TestListTabs(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodGet, "/api/v1/tabs", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got struct {
		Tabs           []tabs.Tab `json:"tabs"`
		Count          int        `json:"count"`
		SupportsStacks bool       `json:"supports_stacks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Count != 1 || got.Tabs[0].URL != "https://a.com/" || !got.SupportsStacks {
		t.Fatalf("tabs response = %+v", got)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "source unavailable",
			err:  &controller.CodedError{Code: controller.CodeSourceUnavailable, Message: "read tabs", Cause: errors.New("refused")},
			want: http.StatusBadGateway,
		},
		{
			name: "eval timeout",
			err: &controller.CodedError{
				Code:    controller.CodeSourceUnavailable,
				Message: "read tabs",
				Cause:   &cdpcontrol.CodedError{Code: cdpcontrol.CodeEvalTimeout, Message: "timed out"},
			},
			want: http.StatusGatewayTimeout,
		},
		{
			name: "store failure",
			err:  &controller.CodedError{Code: controller.CodeStoreFailure, Message: "disk"},
			want: http.StatusInternalServerError,
		},
		{
			name: "plain",
			err:  errors.New("boom"),
			want: http.StatusInternalServerError,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(t, &stubService{tabsErr: tc.err}, http.MethodGet, "/api/v1/tabs", "", nil)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (body=%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestPrefsRoundTrip(t *testing.T) {
	svc := &stubService{}
	w := serve(t, svc, http.MethodPut, "/api/v1/prefs", `{"window":true,"stack":false,"host":true,"indent":false}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", w.Code, w.Body.String())
	}
	if want := (prefs.Prefs{Window: true, Host: true}); svc.prefs != want {
		t.Fatalf("stored prefs = %+v; want %+v", svc.prefs, want)
	}

	w = serve(t, svc, http.MethodGet, "/api/v1/prefs", "", nil)
	var got prefs.Prefs
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != svc.prefs {
		t.Fatalf("GET prefs = %+v; want %+v", got, svc.prefs)
	}
}

func TestCreateExportUsesAcceptLanguage(t *testing.T) {
	svc := &stubService{}
	w := serve(t, svc, http.MethodPost, "/api/v1/export", `{"prefs":{"window":true,"stack":false,"host":false,"indent":true}}`,
		map[string]string{"Accept-Language": "de-AT,de;q=0.9"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.lastReq.Locale != "de-AT,de;q=0.9" {
		t.Fatalf("locale = %q; want Accept-Language value", svc.lastReq.Locale)
	}
	if svc.lastReq.Prefs == nil || !svc.lastReq.Prefs.Window || !svc.lastReq.Prefs.Indent {
		t.Fatalf("prefs = %+v; want window+indent", svc.lastReq.Prefs)
	}
	if !strings.Contains(w.Body.String(), "/api/v1/exports/"+knownID+"/html") {
		t.Fatalf("body missing html url: %s", w.Body.String())
	}
}

func TestCreateExportExplicitLocaleWins(t *testing.T) {
	svc := &stubService{}
	w := serve(t, svc, http.MethodPost, "/api/v1/export", `{"locale":"fr"}`, map[string]string{"Accept-Language": "de"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.lastReq.Locale != "fr" {
		t.Fatalf("locale = %q; want fr", svc.lastReq.Locale)
	}
	if svc.lastReq.Prefs != nil {
		t.Fatalf("prefs = %+v; want nil for stored prefs", svc.lastReq.Prefs)
	}
}

func TestGetExportHTML(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodGet, "/api/v1/exports/"+knownID+"/html", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, "My tabs") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(w.Body.String(), "<h1>My tabs</h1>") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestGetExportNotFound(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodGet, "/api/v1/exports/ffffffff-ffff-4fff-8fff-ffffffffffff", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestOpenAndDeleteExport(t *testing.T) {
	svc := &stubService{}
	w := serve(t, svc, http.MethodPost, "/api/v1/exports/"+knownID+"/open", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("open status = %d, body = %s", w.Code, w.Body.String())
	}
	w = serve(t, svc, http.MethodDelete, "/api/v1/exports/"+knownID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(svc.openedIDs) != 1 || len(svc.deleted) != 1 || svc.deleted[0] != knownID {
		t.Fatalf("opened=%v deleted=%v", svc.openedIDs, svc.deleted)
	}
}

func TestListExportsEmpty(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodGet, "/api/v1/exports", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"exports":[]`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}
