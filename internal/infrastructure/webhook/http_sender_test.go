package webhook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	domain "github.com/mohammadpnp/catalog-import/internal/domain/webhook"
	"github.com/mohammadpnp/catalog-import/internal/infrastructure/webhook"
)

func TestHTTPSenderPostsPayload(t *testing.T) {
	t.Parallel()

	var got domain.Payload
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer server.Close()

	sender := webhook.NewHTTPSender(time.Second, 0)
	payload := domain.NewPayload(domain.EventImportCompleted, map[string]any{"job_id": "job-1"}, time.Now())

	resp, err := sender.Send(context.Background(), server.URL, payload)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if len(resp.Body) != 1000 {
		t.Fatalf("expected truncated body of 1000 bytes, got %d", len(resp.Body))
	}
	if got.Event != domain.EventImportCompleted || got.Data["job_id"] != "job-1" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if gotUA == "" {
		t.Fatal("expected user agent header")
	}
}

func TestHTTPSenderKeepsResponseTextValidUTF8(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a" + strings.Repeat("é", 600) + "\x00" + strings.Repeat("é", 600)))
	}))
	defer server.Close()

	sender := webhook.NewHTTPSender(time.Second, 0)
	resp, err := sender.Send(context.Background(), server.URL, domain.NewPayload(domain.EventImportCompleted, nil, time.Now()))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !utf8.ValidString(resp.Body) {
		t.Fatal("expected response text to be valid UTF-8")
	}
	if n := utf8.RuneCountInString(resp.Body); n != 1000 {
		t.Fatalf("expected 1000 characters, got %d", n)
	}
	if strings.ContainsRune(resp.Body, 0) {
		t.Fatal("expected NUL bytes to be stripped")
	}
	if !strings.HasPrefix(resp.Body, "aé") {
		t.Fatalf("unexpected body prefix: %q", resp.Body[:8])
	}
}

func TestHTTPSenderTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	sender := webhook.NewHTTPSender(50*time.Millisecond, 0)
	_, err := sender.Send(context.Background(), server.URL, domain.NewPayload("test", nil, time.Now()))
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
