package progress

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
)

type capturePublisher struct {
	jobIDs []string
	events []domain.ProgressEvent
	err    error
}

func (c *capturePublisher) Publish(ctx context.Context, jobID string, ev domain.ProgressEvent) error {
	if c.err != nil {
		return c.err
	}
	c.jobIDs = append(c.jobIDs, jobID)
	c.events = append(c.events, ev)
	return nil
}

func notificationPayload(t *testing.T, ev domain.ProgressEvent) string {
	t.Helper()
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return string(body)
}

func TestPGListenerRelaysNotification(t *testing.T) {
	t.Parallel()

	hub := &capturePublisher{}
	listener := NewPGListener("", hub)
	total := int64(10)

	payload := notificationPayload(t, domain.ProcessingEvent("job-1", domain.Counters{Processed: 4}, &total, ""))
	if err := listener.relay(context.Background(), payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(hub.events) != 1 || hub.jobIDs[0] != "job-1" || *hub.events[0].Processed != 4 {
		t.Fatalf("unexpected relayed events %+v", hub.events)
	}
}

func TestPGListenerIgnoresUnaddressedNotification(t *testing.T) {
	t.Parallel()

	hub := &capturePublisher{}
	if err := NewPGListener("", hub).relay(context.Background(), `{"status":"processing"}`); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(hub.events) != 0 {
		t.Fatalf("expected nothing relayed, got %+v", hub.events)
	}
}

func TestPGListenerReportsRelayErrors(t *testing.T) {
	t.Parallel()

	listener := NewPGListener("", &capturePublisher{})
	if err := listener.relay(context.Background(), "{not json"); err == nil {
		t.Fatal("expected malformed notification error")
	}

	failing := NewPGListener("", &capturePublisher{err: errors.New("hub closed")})
	err := failing.relay(context.Background(), notificationPayload(t, domain.ConnectedEvent("job-1")))
	if err == nil || !strings.Contains(err.Error(), "hub closed") {
		t.Fatalf("expected publish error to surface, got %v", err)
	}
}
