package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPSinkSuccess(t *testing.T) {
	var received Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Errorf("missing header, got %s", got)
		}
		if got := r.Header.Get("X-Event-Type"); got != TypePostPublished {
			t.Errorf("X-Event-Type = %q", got)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "blog/101@2025-03-01T09:30:00Z" {
			t.Errorf("Idempotency-Key = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := newHTTPSink(context.Background(), sanitizeSinkConfig(SinkConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPSinkConfig{URL: srv.URL, Method: "put", Headers: map[string]string{"X-Test": "1", " ": "x"}},
	}), nil)
	if err != nil {
		t.Fatalf("newHTTPSink: %v", err)
	}

	evt := sampleEvent()
	evt.PublishedAt = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	if err := sink.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if received.RemoteID != "101" {
		t.Fatalf("server did not receive the event, got %+v", received)
	}
}

func TestHTTPSinkErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	sink, err := newHTTPSink(context.Background(), sanitizeSinkConfig(SinkConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPSinkConfig{URL: srv.URL, TimeoutSeconds: 1},
	}), nil)
	if err != nil {
		t.Fatalf("newHTTPSink: %v", err)
	}
	if err := sink.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}

func TestHTTPSinkGoneEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	sink, err := newHTTPSink(context.Background(), sanitizeSinkConfig(SinkConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPSinkConfig{URL: srv.URL},
	}), nil)
	if err != nil {
		t.Fatalf("newHTTPSink: %v", err)
	}
	err = sink.Publish(context.Background(), sampleEvent())
	if err == nil || !strings.Contains(err.Error(), "gone") {
		t.Fatalf("expected gone error, got %v", err)
	}
}

func TestDeliveryKeyChangesPerPush(t *testing.T) {
	first := sampleEvent()
	first.PublishedAt = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	second := first
	second.PublishedAt = first.PublishedAt.Add(time.Minute)

	if first.DeliveryKey() == second.DeliveryKey() {
		t.Fatalf("republish should get a new delivery key: %s", first.DeliveryKey())
	}
	if first.DeliveryKey() != sampleEventAt(first.PublishedAt).DeliveryKey() {
		t.Fatalf("delivery key should be stable for the same event")
	}
}

func sampleEventAt(at time.Time) Event {
	evt := sampleEvent()
	evt.PublishedAt = at
	return evt
}
