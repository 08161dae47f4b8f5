package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	SourceCDP  = "cdp"
	SourceFile = "file"
)

// Config holds all configuration for the tab exporter.
type Config struct {
	// CDP connection settings
	CDPAddress    string
	CDPPort       int
	TabURLFilter  string
	EvalTimeoutMS int

	// Tab source: "cdp" or "file"; Input is the JSON path for "file" ("-" is stdin).
	Source string
	Input  string

	// Storage
	OutputDir string
	StoreDir  string
	PrefsFile string

	Locale     string
	Open       bool
	NotifyURL  string
	NotifyName string

	// HTTP API
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Browser launch
	LaunchBrowser bool
	BrowserPath   string
	ProfileDir    string

	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		CDPAddress:       getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:          getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9222),
		TabURLFilter:     getEnvOrDefault("TABEXPORT_TAB_URL_FILTER", ""),
		EvalTimeoutMS:    getEnvIntOrDefault("TABEXPORT_EVAL_TIMEOUT_MS", 5000),
		Source:           strings.ToLower(getEnvOrDefault("TABEXPORT_SOURCE", SourceCDP)),
		Input:            getEnvOrDefault("TABEXPORT_INPUT", "-"),
		OutputDir:        getEnvOrDefault("TABEXPORT_OUTPUT_DIR", "."),
		StoreDir:         getEnvOrDefault("TABEXPORT_STORE_DIR", "./exports"),
		PrefsFile:        getEnvOrDefault("TABEXPORT_PREFS_FILE", "./tabexport_prefs.json"),
		Locale:           getEnvOrDefault("TABEXPORT_LOCALE", posixLocale(os.Getenv("LANG"))),
		Open:             getEnvBoolOrDefault("TABEXPORT_OPEN", false),
		NotifyURL:        getEnvOrDefault("TABEXPORT_NOTIFY_URL", ""),
		NotifyName:       getEnvOrDefault("TABEXPORT_NOTIFY_TITLE", ""),
		BindAddr:         getEnvOrDefault("TABEXPORT_BIND_ADDR", "127.0.0.1:8190"),
		PortCandidates:   getEnvListOrDefault("TABEXPORT_PORT_CANDIDATES", []string{"8191", "8192", "8193"}),
		PortAutoFallback: getEnvBoolOrDefault("TABEXPORT_PORT_AUTO_FALLBACK", true),
		LaunchBrowser:    getEnvBoolOrDefault("TABEXPORT_LAUNCH_BROWSER", false),
		BrowserPath:      getEnvOrDefault("TABEXPORT_BROWSER_PATH", ""),
		ProfileDir:       getEnvOrDefault("TABEXPORT_PROFILE_DIR", "./browser_profile"),
		LogLevel:         strings.ToLower(getEnvOrDefault("TABEXPORT_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("TABEXPORT_LOG_FILE", "logs/tabexport.log"),
	}
	if cfg.EvalTimeoutMS < 1000 {
		cfg.EvalTimeoutMS = 1000
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCDP, SourceFile:
	default:
		return fmt.Errorf("config: unknown tab source %q (want %q or %q)", c.Source, SourceCDP, SourceFile)
	}
	if c.Source == SourceFile && strings.TrimSpace(c.Input) == "" {
		return fmt.Errorf("config: file source needs an input path")
	}
	if c.CDPPort <= 0 || c.CDPPort > 65535 {
		return fmt.Errorf("config: invalid CDP port %d", c.CDPPort)
	}
	return nil
}

// CDPURL returns the CDP HTTP endpoint.
func (c *Config) CDPURL() string {
	return "http://" + c.CDPAddress + ":" + strconv.Itoa(c.CDPPort)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// posixLocale turns a POSIX locale such as "de_AT.UTF-8" into "de-AT".
func posixLocale(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "C" || v == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(v, "_", "-")
}
