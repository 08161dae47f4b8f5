package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgnsrekt/tabexport/internal/api"
	"github.com/dgnsrekt/tabexport/internal/events"
	"github.com/dgnsrekt/tabexport/internal/i18n"
	"github.com/dgnsrekt/tabexport/internal/netutil"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export HTTP API",
		Long: `Start the HTTP API. OpenAPI docs are served at /docs.

When the preferred bind address is busy and port fallback is enabled, the
first free address from TABEXPORT_PORT_CANDIDATES is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer a.close()

			cfg := a.cfg
			if bind != "" {
				cfg.BindAddr = bind
			}
			candidates, err := netutil.CandidateAddrs(cfg.BindAddr, cfg.PortCandidates)
			if err != nil {
				return err
			}
			bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, candidates, cfg.PortAutoFallback)
			if err != nil {
				slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
				return err
			}

			a.events = events.NewBroker()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			if a.launcher != nil && a.launcher.Running() {
				defer a.launcher.Stop()
			}

			srv := &http.Server{
				Addr:              bindAddr,
				Handler:           api.NewServer(svc, a.catalog.Lookup(i18n.KeyName), a.events),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("tabexport listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs", "source", cfg.Source)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case err := <-errCh:
				if err != nil {
					slog.Error("tabexport server failed", "error", err)
					return err
				}
				return nil
			case <-sigCh:
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("tabexport shutdown failed", "error", err)
				return err
			}
			slog.Info("tabexport stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "bind address (host:port)")
	return cmd
}
