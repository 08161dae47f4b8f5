package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/tabexport/internal/prefs"
	"github.com/dgnsrekt/tabexport/internal/tabs"
)

func registerTabHandlers(api huma.API, svc Service) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	type tabsOutput struct {
		Body struct {
			Tabs           []tabs.Tab `json:"tabs"`
			Count          int        `json:"count"`
			SupportsStacks bool       `json:"supports_stacks"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-tabs", Method: http.MethodGet, Path: "/api/v1/tabs", Summary: "List open tabs", Description: "Returns the current tab snapshot from the configured source.", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct{}) (*tabsOutput, error) {
			ts, err := svc.Tabs(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &tabsOutput{}
			out.Body.Tabs = ts
			if out.Body.Tabs == nil {
				out.Body.Tabs = []tabs.Tab{}
			}
			out.Body.Count = len(ts)
			out.Body.SupportsStacks = svc.SupportsStacks()
			return out, nil
		})

	type prefsOutput struct {
		Body prefs.Prefs
	}
	huma.Register(api, huma.Operation{OperationID: "get-prefs", Method: http.MethodGet, Path: "/api/v1/prefs", Summary: "Get grouping preferences", Tags: []string{"Preferences"}},
		func(ctx context.Context, input *struct{}) (*prefsOutput, error) {
			p, err := svc.GetPrefs(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &prefsOutput{Body: p}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-prefs", Method: http.MethodPut, Path: "/api/v1/prefs", Summary: "Replace grouping preferences", Tags: []string{"Preferences"}},
		func(ctx context.Context, input *struct {
			Body prefs.Prefs
		}) (*prefsOutput, error) {
			p, err := svc.SetPrefs(ctx, input.Body)
			if err != nil {
				return nil, mapErr(err)
			}
			return &prefsOutput{Body: p}, nil
		})
}
