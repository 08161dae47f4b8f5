package browser

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestLaunchSkipsWhenCDPAlreadyListening(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	l := NewLauncher(Config{CDPAddress: host, CDPPort: port, BinaryPath: "definitely-not-a-browser"})
	if err := l.Launch(context.Background()); err != nil {
		t.Fatalf("Launch() error = %v; want skip", err)
	}
	if l.Running() {
		t.Fatalf("Running() = true; want false when skipped")
	}
}

func TestDetectBrowserOverrideMissing(t *testing.T) {
	if _, err := detectBrowser("definitely-not-a-browser"); err == nil {
		t.Fatalf("detectBrowser() error = nil; want not found")
	}
}

func TestWaitForCDP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"Browser":"Vivaldi"}`))
	}))
	defer srv.Close()

	host, portStr, _ := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	port, _ := strconv.Atoi(portStr)
	l := NewLauncher(Config{CDPAddress: host, CDPPort: port, ReadyTimeout: 2 * time.Second})
	if err := l.waitForCDP(context.Background()); err != nil {
		t.Fatalf("waitForCDP() error = %v", err)
	}
}

func TestWaitForCDPTimesOut(t *testing.T) {
	l := NewLauncher(Config{CDPAddress: "127.0.0.1", CDPPort: 1, ReadyTimeout: 300 * time.Millisecond})
	if err := l.waitForCDP(context.Background()); err == nil {
		t.Fatalf("waitForCDP() error = nil; want timeout")
	}
}

func TestArgsCarryDebuggingEndpoint(t *testing.T) {
	l := NewLauncher(Config{CDPAddress: "127.0.0.1", CDPPort: 9222, ProfileDir: "/tmp/p"})
	joined := strings.Join(l.args(), " ")
	for _, want := range []string{"--remote-debugging-port=9222", "--remote-debugging-address=127.0.0.1", "--user-data-dir=/tmp/p"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args = %q; missing %q", joined, want)
		}
	}
}
