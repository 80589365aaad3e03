package importjob_test

import (
	"context"
	"errors"
	"testing"
	"time"

	app "github.com/mohammadpnp/catalog-import/internal/application/importjob"
	"github.com/mohammadpnp/catalog-import/internal/application/progress"
	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
)

// recordingSubscriber remembers the subscriptions handed out so tests can
// check they were released.
type recordingSubscriber struct {
	hub  *progress.Hub
	subs []*progress.Subscription
}

func (r *recordingSubscriber) Subscribe(jobID string) *progress.Subscription {
	sub := r.hub.Subscribe(jobID)
	r.subs = append(r.subs, sub)
	return sub
}

// assertReleased publishes one more event and expects every recorded
// subscription to be closed rather than receive it.
func (r *recordingSubscriber) assertReleased(t *testing.T, jobID string) {
	t.Helper()
	total := int64(1)
	_ = r.hub.Publish(context.Background(), jobID, domain.ProcessingEvent(jobID, domain.Counters{Processed: 1}, &total, ""))
	for _, sub := range r.subs {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_, ok := sub.Next(ctx)
		cancel()
		if ok {
			t.Fatal("expected subscription to be released")
		}
	}
}

func TestWatchImportJobFinishedJobYieldsSnapshotOnly(t *testing.T) {
	t.Parallel()

	hub := &recordingSubscriber{hub: progress.NewHub(8)}
	store := &fakeJobStore{job: &domain.ImportJob{
		ID:            knownJobID,
		Status:        domain.StatusCompleted,
		TotalRows:     int64Ptr(3),
		ProcessedRows: 3,
		InsertedRows:  3,
	}}

	events, err := app.NewWatchImportJob(store, hub).Execute(context.Background(), app.WatchImportJobInput{ID: knownJobID})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var got []domain.EventStatus
	for ev := range events {
		got = append(got, ev.Status)
	}

	want := []domain.EventStatus{domain.EventConnected, domain.EventComplete}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
	hub.assertReleased(t, knownJobID)
}

func TestWatchImportJobStreamsLiveEvents(t *testing.T) {
	t.Parallel()

	hub := progress.NewHub(8)
	store := &fakeJobStore{job: &domain.ImportJob{
		ID:            knownJobID,
		Status:        domain.StatusRunning,
		TotalRows:     int64Ptr(10),
		ProcessedRows: 4,
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := app.NewWatchImportJob(store, hub).Execute(ctx, app.WatchImportJobInput{ID: knownJobID})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	total := int64(10)
	// Published before the stream is read: the stale one lags the snapshot.
	_ = hub.Publish(ctx, knownJobID, domain.ProcessingEvent(knownJobID, domain.Counters{Processed: 2}, &total, ""))
	_ = hub.Publish(ctx, knownJobID, domain.ProcessingEvent(knownJobID, domain.Counters{Processed: 8}, &total, ""))
	_ = hub.Publish(ctx, knownJobID, domain.CompleteEvent(knownJobID, domain.Counters{Processed: 10}, &total))

	var processed []int64
	var statuses []domain.EventStatus
	for ev := range events {
		statuses = append(statuses, ev.Status)
		if ev.Processed != nil {
			processed = append(processed, *ev.Processed)
		}
	}

	if statuses[0] != domain.EventConnected || statuses[len(statuses)-1] != domain.EventComplete {
		t.Fatalf("unexpected statuses %v", statuses)
	}
	wantProcessed := []int64{4, 8, 10}
	if len(processed) != len(wantProcessed) {
		t.Fatalf("expected processed %v, got %v", wantProcessed, processed)
	}
	for i := range wantProcessed {
		if processed[i] != wantProcessed[i] {
			t.Fatalf("expected processed %v, got %v", wantProcessed, processed)
		}
	}
}

func TestWatchImportJobUnknownJob(t *testing.T) {
	t.Parallel()

	hub := &recordingSubscriber{hub: progress.NewHub(8)}
	_, err := app.NewWatchImportJob(&fakeJobStore{}, hub).Execute(context.Background(), app.WatchImportJobInput{ID: knownJobID})
	if !errors.Is(err, app.ErrImportJobNotFound) {
		t.Fatalf("expected ErrImportJobNotFound, got %v", err)
	}
	hub.assertReleased(t, knownJobID)
}
