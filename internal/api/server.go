package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/tabexport/internal/cdpcontrol"
	"github.com/dgnsrekt/tabexport/internal/controller"
	"github.com/dgnsrekt/tabexport/internal/events"
	"github.com/dgnsrekt/tabexport/internal/exports"
	"github.com/dgnsrekt/tabexport/internal/prefs"
	"github.com/dgnsrekt/tabexport/internal/tabs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Service interface {
	SupportsStacks() bool
	Tabs(ctx context.Context) ([]tabs.Tab, error)
	GetPrefs(ctx context.Context) (prefs.Prefs, error)
	SetPrefs(ctx context.Context, p prefs.Prefs) (prefs.Prefs, error)
	Build(ctx context.Context, req controller.ExportRequest) ([]byte, exports.Meta, error)
	Export(ctx context.Context, req controller.ExportRequest) (exports.Meta, error)
	Open(ctx context.Context, id string) error
	ListExports(ctx context.Context) ([]exports.Meta, error)
	GetExport(ctx context.Context, id string) (exports.Meta, error)
	ReadExportHTML(ctx context.Context, id string) ([]byte, exports.Meta, error)
	DeleteExport(ctx context.Context, id string) error
}

type exportIDInput struct {
	ExportID string `path:"export_id" doc:"Export ID (UUID)"`
}

// NewServer builds the HTTP handler. title names the API in the OpenAPI
// document and on the docs page. A non-nil broker is streamed at
// /api/v1/events.
func NewServer(svc Service, title string, broker *events.Broker) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig(title+" API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	page := docsHTML(title + " API")
	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(page)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})

	if broker != nil {
		router.Get("/api/v1/events", events.SSEHandler(broker))
	}

	registerTabHandlers(api, svc)
	registerExportHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *controller.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case controller.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case controller.CodeExportNotFound:
			return huma.Error404NotFound(coded.Message)
		case controller.CodeSourceUnavailable:
			var cdpErr *cdpcontrol.CodedError
			if errors.As(coded.Cause, &cdpErr) && cdpErr.Code == cdpcontrol.CodeEvalTimeout {
				return huma.Error504GatewayTimeout(coded.Error())
			}
			return huma.Error502BadGateway(coded.Error())
		case controller.CodePresentFailure:
			return huma.Error502BadGateway(coded.Error())
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
