package api

import (
	"context"
	"mime"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/tabexport/internal/controller"
	"github.com/dgnsrekt/tabexport/internal/exports"
	"github.com/dgnsrekt/tabexport/internal/prefs"
	"github.com/dgnsrekt/tabexport/internal/render"
)

type exportBody struct {
	Prefs  *prefs.Prefs `json:"prefs,omitempty" doc:"Grouping options for this export. Omit to use the stored preferences."`
	Locale string       `json:"locale,omitempty" doc:"Locale for the title and labels, e.g. de-AT. Defaults to Accept-Language." example:"en"`
	Open   bool         `json:"open,omitempty" doc:"Open the saved page in a new browser tab"`
}

type exportInput struct {
	AcceptLanguage string     `header:"Accept-Language"`
	Body           exportBody `required:"false"`
}

func (in *exportInput) request() controller.ExportRequest {
	locale := in.Body.Locale
	if locale == "" {
		locale = in.AcceptLanguage
	}
	return controller.ExportRequest{Prefs: in.Body.Prefs, Locale: locale, Open: in.Body.Open}
}

type htmlOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

var htmlResponses = map[string]*huma.Response{
	"200": {
		Description: "Exported page",
		Content: map[string]*huma.MediaType{
			"text/html": {
				Schema: &huma.Schema{Type: "string"},
			},
		},
	},
}

func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

func registerExportHandlers(api huma.API, svc Service) {
	type exportOutput struct {
		Body struct {
			Export exports.Meta `json:"export"`
			URL    string       `json:"url"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-export", Method: http.MethodPost, Path: "/api/v1/export", Summary: "Export open tabs as an HTML page", Tags: []string{"Exports"}},
		func(ctx context.Context, input *exportInput) (*exportOutput, error) {
			meta, err := svc.Export(ctx, input.request())
			if err != nil {
				return nil, mapErr(err)
			}
			out := &exportOutput{}
			out.Body.Export = meta
			out.Body.URL = "/api/v1/exports/" + meta.ID + "/html"
			return out, nil
		})

	huma.Register(api, huma.Operation{
		OperationID: "preview-export",
		Method:      http.MethodPost,
		Path:        "/api/v1/export/preview",
		Summary:     "Render open tabs without storing the page",
		Tags:        []string{"Exports"},
		Responses:   htmlResponses,
	}, func(ctx context.Context, input *exportInput) (*htmlOutput, error) {
		page, meta, err := svc.Build(ctx, input.request())
		if err != nil {
			return nil, mapErr(err)
		}
		return &htmlOutput{ContentType: render.MIMEType, ContentDisposition: attachment(meta.Filename), Body: page}, nil
	})

	type listExportsOutput struct {
		Body struct {
			Exports []exports.Meta `json:"exports"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-exports", Method: http.MethodGet, Path: "/api/v1/exports", Summary: "List stored exports", Tags: []string{"Exports"}},
		func(ctx context.Context, input *struct{}) (*listExportsOutput, error) {
			metas, err := svc.ListExports(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listExportsOutput{}
			out.Body.Exports = metas
			if out.Body.Exports == nil {
				out.Body.Exports = []exports.Meta{}
			}
			return out, nil
		})

	type getExportOutput struct {
		Body exports.Meta
	}
	huma.Register(api, huma.Operation{OperationID: "get-export", Method: http.MethodGet, Path: "/api/v1/exports/{export_id}", Summary: "Get export metadata", Tags: []string{"Exports"}},
		func(ctx context.Context, input *exportIDInput) (*getExportOutput, error) {
			meta, err := svc.GetExport(ctx, input.ExportID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &getExportOutput{Body: meta}, nil
		})

	huma.Register(api, huma.Operation{
		OperationID: "get-export-html",
		Method:      http.MethodGet,
		Path:        "/api/v1/exports/{export_id}/html",
		Summary:     "Download the exported page",
		Tags:        []string{"Exports"},
		Responses:   htmlResponses,
	}, func(ctx context.Context, input *exportIDInput) (*htmlOutput, error) {
		data, meta, err := svc.ReadExportHTML(ctx, input.ExportID)
		if err != nil {
			return nil, mapErr(err)
		}
		return &htmlOutput{ContentType: render.MIMEType, ContentDisposition: attachment(meta.Filename), Body: data}, nil
	})

	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "open-export", Method: http.MethodPost, Path: "/api/v1/exports/{export_id}/open", Summary: "Open a stored export in a new browser tab", Tags: []string{"Exports"}},
		func(ctx context.Context, input *exportIDInput) (*statusOutput, error) {
			if err := svc.Open(ctx, input.ExportID); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "opened"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-export", Method: http.MethodDelete, Path: "/api/v1/exports/{export_id}", Summary: "Delete export", Tags: []string{"Exports"}},
		func(ctx context.Context, input *exportIDInput) (*statusOutput, error) {
			if err := svc.DeleteExport(ctx, input.ExportID); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "deleted"
			return out, nil
		})
}
