package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/mohammadpnp/catalog-import/internal/application/progress"
	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
)

func processing(jobID string, processed int64) domain.ProgressEvent {
	total := int64(100)
	return domain.ProcessingEvent(jobID, domain.Counters{Processed: processed}, &total, "")
}

func nextWithin(t *testing.T, sub *progress.Subscription) (domain.ProgressEvent, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return sub.Next(ctx)
}

func TestHubFansOutToAllSubscribers(t *testing.T) {
	t.Parallel()

	hub := progress.NewHub(8)
	first := hub.Subscribe("job-1")
	second := hub.Subscribe("job-1")
	other := hub.Subscribe("job-2")
	defer other.Close()

	_ = hub.Publish(context.Background(), "job-1", processing("job-1", 10))

	for _, sub := range []*progress.Subscription{first, second} {
		ev, ok := nextWithin(t, sub)
		if !ok {
			t.Fatal("expected event")
		}
		if *ev.Processed != 10 {
			t.Fatalf("unexpected processed: %d", *ev.Processed)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := other.Next(ctx); ok {
		t.Fatal("subscriber of another job must not receive the event")
	}
}

func TestHubDropsEventsWithoutSubscribers(t *testing.T) {
	t.Parallel()

	hub := progress.NewHub(8)
	_ = hub.Publish(context.Background(), "job-1", processing("job-1", 10))

	sub := hub.Subscribe("job-1")
	defer sub.Close()
	_ = hub.Publish(context.Background(), "job-1", processing("job-1", 20))

	ev, ok := nextWithin(t, sub)
	if !ok {
		t.Fatal("expected event")
	}
	if *ev.Processed != 20 {
		t.Fatalf("late subscriber must only see later events, got processed=%d", *ev.Processed)
	}
}

func TestHubPreservesOrderAndEndsOnTerminal(t *testing.T) {
	t.Parallel()

	hub := progress.NewHub(8)
	sub := hub.Subscribe("job-1")

	for _, processed := range []int64{10, 20, 30} {
		_ = hub.Publish(context.Background(), "job-1", processing("job-1", processed))
	}
	total := int64(30)
	_ = hub.Publish(context.Background(), "job-1", domain.CompleteEvent("job-1", domain.Counters{Processed: 30}, &total))
	_ = hub.Publish(context.Background(), "job-1", processing("job-1", 40))

	var got []domain.ProgressEvent
	for ev := range sub.Events(context.Background()) {
		got = append(got, ev)
	}

	if len(got) != 4 {
		t.Fatalf("expected 4 events, got %d", len(got))
	}
	for i, want := range []int64{10, 20, 30, 30} {
		if *got[i].Processed != want {
			t.Fatalf("event %d: expected processed=%d, got %d", i, want, *got[i].Processed)
		}
	}
	if got[3].Status != domain.EventComplete {
		t.Fatalf("expected terminal complete event last, got %s", got[3].Status)
	}
	if _, ok := nextWithin(t, sub); ok {
		t.Fatal("subscription must not yield after a terminal event")
	}
}

func TestHubCloseUnsubscribes(t *testing.T) {
	t.Parallel()

	hub := progress.NewHub(8)
	sub := hub.Subscribe("job-1")
	stays := hub.Subscribe("job-1")
	defer stays.Close()

	sub.Close()
	sub.Close()
	_ = hub.Publish(context.Background(), "job-1", processing("job-1", 10))

	if _, ok := nextWithin(t, sub); ok {
		t.Fatal("closed subscription must not yield")
	}
	ev, ok := nextWithin(t, stays)
	if !ok || *ev.Processed != 10 {
		t.Fatalf("expected remaining subscriber to receive the event, got %+v ok=%v", ev, ok)
	}
}

func TestHubSlowSubscriberKeepsTerminalEvent(t *testing.T) {
	t.Parallel()

	hub := progress.NewHub(2)
	sub := hub.Subscribe("job-1")

	for processed := int64(1); processed <= 5; processed++ {
		_ = hub.Publish(context.Background(), "job-1", processing("job-1", processed))
	}
	_ = hub.Publish(context.Background(), "job-1", domain.ErrorEvent("job-1", "boom"))

	var last domain.ProgressEvent
	var prev int64
	for ev := range sub.Events(context.Background()) {
		if ev.Processed != nil {
			if *ev.Processed < prev {
				t.Fatalf("events out of order: %d after %d", *ev.Processed, prev)
			}
			prev = *ev.Processed
		}
		last = ev
	}
	if last.Status != domain.EventError {
		t.Fatalf("expected terminal error event to survive, got %s", last.Status)
	}
}

func TestSubscriptionNextHonoursContext(t *testing.T) {
	t.Parallel()

	hub := progress.NewHub(8)
	sub := hub.Subscribe("job-1")
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := sub.Next(ctx); ok {
		t.Fatal("expected no event from a cancelled context")
	}
}
