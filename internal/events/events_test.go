package events

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	id1, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()
	if b.ClientCount() != 2 {
		t.Fatalf("ClientCount() = %d; want 2", b.ClientCount())
	}

	b.Publish(KindExportCreated, map[string]string{"id": "x"})
	for _, ch := range []<-chan Event{ch1, ch2} {
		evt := <-ch
		if evt.Kind != KindExportCreated || evt.Data != `{"id":"x"}` {
			t.Fatalf("event = %+v", evt)
		}
	}

	b.Unsubscribe(id1)
	if _, ok := <-ch1; ok {
		t.Fatalf("channel still open after Unsubscribe")
	}
	if b.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d; want 1", b.ClientCount())
	}
}

func TestBrokerDropsWhenFull(t *testing.T) {
	b := NewBroker()
	_, ch := b.Subscribe()
	for i := 0; i < subscriberBufSize+10; i++ {
		b.Publish(KindPrefsUpdated, i)
	}
	if got := len(ch); got != subscriberBufSize {
		t.Fatalf("buffered = %d; want %d", got, subscriberBufSize)
	}
}

func TestNilBrokerIsNoop(t *testing.T) {
	var b *Broker
	b.Publish(KindExportDeleted, "x")
	if b.ClientCount() != 0 {
		t.Fatalf("nil ClientCount() != 0")
	}
}

func TestSSEHandlerFiltersKinds(t *testing.T) {
	b := NewBroker()
	srv := httptest.NewServer(SSEHandler(b))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?kinds="+KindExportDeleted, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil || !strings.HasPrefix(line, ": subscribed") {
		t.Fatalf("first line = %q, err = %v", line, err)
	}

	b.Publish(KindExportCreated, map[string]string{"id": "skip"})
	b.Publish(KindExportDeleted, map[string]string{"id": "keep"})

	var got []string
	for len(got) < 2 {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if line = strings.TrimSpace(line); line != "" {
			got = append(got, line)
		}
	}
	if got[0] != "event: "+KindExportDeleted || got[1] != `data: {"id":"keep"}` {
		t.Fatalf("stream = %q", got)
	}
}
