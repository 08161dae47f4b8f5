package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dgnsrekt/tabexport/internal/browser"
	"github.com/dgnsrekt/tabexport/internal/cdpcontrol"
	"github.com/dgnsrekt/tabexport/internal/config"
	"github.com/dgnsrekt/tabexport/internal/controller"
	"github.com/dgnsrekt/tabexport/internal/events"
	"github.com/dgnsrekt/tabexport/internal/exports"
	"github.com/dgnsrekt/tabexport/internal/i18n"
	"github.com/dgnsrekt/tabexport/internal/notify"
	"github.com/dgnsrekt/tabexport/internal/prefs"
	"github.com/dgnsrekt/tabexport/internal/present"
	"github.com/dgnsrekt/tabexport/internal/tabsource"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"
)

// app carries configuration and shared collaborators between commands.
type app struct {
	cfg      *config.Config
	catalog  *i18n.Catalog
	launcher *browser.Launcher
	cdp      *cdpcontrol.Client
	events   *events.Broker
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, cmd.Flags()); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := setupLogger(cfg.LogLevel, cfg.LogFile, os.Stderr); err != nil {
		return fmt.Errorf("logger setup failed: %w", err)
	}
	a.cfg = cfg
	a.catalog = i18n.New(cfg.Locale)

	slog.Debug("tabexport config loaded",
		"source", cfg.Source,
		"input", cfg.Input,
		"cdp_url", cfg.CDPURL(),
		"store_dir", cfg.StoreDir,
		"prefs_file", cfg.PrefsFile,
		"locale", a.catalog.Tag().String(),
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)
	return nil
}

// applyFlags copies explicitly set flags over the environment values.
func applyFlags(cfg *config.Config, fs *pflag.FlagSet) error {
	var firstErr error
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			v, err := fs.GetString(name)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			*dst = v
		}
	}
	str("source", &cfg.Source)
	str("input", &cfg.Input)
	str("cdp-address", &cfg.CDPAddress)
	str("tab-filter", &cfg.TabURLFilter)
	str("store-dir", &cfg.StoreDir)
	str("prefs-file", &cfg.PrefsFile)
	str("locale", &cfg.Locale)
	str("browser-path", &cfg.BrowserPath)
	str("notify-url", &cfg.NotifyURL)
	str("log-level", &cfg.LogLevel)
	str("log-file", &cfg.LogFile)
	if fs.Changed("cdp-port") {
		v, err := fs.GetInt("cdp-port")
		if err != nil {
			return err
		}
		cfg.CDPPort = v
	}
	if fs.Changed("launch") {
		v, err := fs.GetBool("launch")
		if err != nil {
			return err
		}
		cfg.LaunchBrowser = v
	}
	return firstErr
}

// source returns the configured tab source, launching a browser first when
// asked to.
func (a *app) source(ctx context.Context) (controller.TabSource, error) {
	if a.cfg.Source == config.SourceFile {
		return tabsource.NewFile(a.cfg.Input), nil
	}
	if a.cfg.LaunchBrowser && a.launcher == nil {
		a.launcher = browser.NewLauncher(browser.Config{
			CDPAddress: a.cfg.CDPAddress,
			CDPPort:    a.cfg.CDPPort,
			BinaryPath: a.cfg.BrowserPath,
			ProfileDir: a.cfg.ProfileDir,
		})
		if err := a.launcher.Launch(ctx); err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
	}
	if a.cdp == nil {
		a.cdp = cdpcontrol.NewClient(a.cfg.CDPURL(), a.cfg.TabURLFilter, time.Duration(a.cfg.EvalTimeoutMS)*time.Millisecond)
	}
	return a.cdp, nil
}

func (a *app) service(ctx context.Context) (*controller.Service, error) {
	src, err := a.source(ctx)
	if err != nil {
		return nil, err
	}
	prefStore, err := a.prefsStore()
	if err != nil {
		return nil, err
	}
	store, err := exports.NewStore(a.cfg.StoreDir)
	if err != nil {
		return nil, err
	}

	notifyTitle := a.cfg.NotifyName
	if notifyTitle == "" {
		notifyTitle = a.catalog.Lookup(i18n.KeyName)
	}
	n := notify.New(a.cfg.NotifyURL, notifyTitle, &http.Client{Timeout: 10 * time.Second})

	timeout := time.Duration(a.cfg.EvalTimeoutMS) * time.Millisecond
	return controller.NewService(src, prefStore, store, a.catalog,
		controller.WithPresenter(present.NewBrowser(a.cfg.CDPURL(), timeout)),
		controller.WithNotifier(n),
		controller.WithEvents(a.events),
	), nil
}

func (a *app) prefsStore() (*prefs.Store, error) {
	return prefs.NewStore(a.cfg.PrefsFile)
}

// close releases the CDP connection. A launched browser keeps running so
// pages opened by an export stay visible.
func (a *app) close() {
	if a.cdp != nil {
		if err := a.cdp.Close(); err != nil {
			slog.Debug("CDP client close failed", "error", err)
		}
	}
}

// setupLogger tees slog text output to console and a rotating file.
func setupLogger(level, filename string, console io.Writer) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	h := slog.NewTextHandler(io.MultiWriter(console, logWriter), &slog.HandlerOptions{Level: parseLevel(level)})
	slog.SetDefault(slog.New(h))
	return nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
