package importjob

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/mohammadpnp/catalog-import/internal/application/progress"
	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
)

type progressSubscriber interface {
	Subscribe(jobID string) *progress.Subscription
}

type WatchImportJobInput struct {
	ID string
}

type WatchImportJob interface {
	Execute(ctx context.Context, in WatchImportJobInput) (iter.Seq[domain.ProgressEvent], error)
}

type watchImportJob struct {
	repo importJobReader
	hub  progressSubscriber
}

func NewWatchImportJob(repo importJobReader, hub progressSubscriber) WatchImportJob {
	return &watchImportJob{repo: repo, hub: hub}
}

// Execute returns the event stream of one job: a connected event, the
// stored state, then live events until a terminal one. A job that already
// finished yields its terminal snapshot and ends. The caller must range over
// the sequence, the subscription is released when the loop exits.
func (uc *watchImportJob) Execute(ctx context.Context, in WatchImportJobInput) (iter.Seq[domain.ProgressEvent], error) {
	if err := validateJobID(in.ID); err != nil {
		return nil, err
	}

	// Subscribe before reading the snapshot so nothing published in between is lost.
	sub := uc.hub.Subscribe(in.ID)

	job, err := uc.repo.Get(ctx, in.ID)
	if err != nil {
		sub.Close()
		if errors.Is(err, domain.ErrJobNotFound) {
			return nil, ErrImportJobNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrGetImportJob, err)
	}

	return func(yield func(domain.ProgressEvent) bool) {
		defer sub.Close()

		if !yield(domain.ConnectedEvent(job.ID)) {
			return
		}

		snapshot := domain.SnapshotEvent(*job)
		if !yield(snapshot) || snapshot.Terminal() {
			return
		}

		last := job.ProcessedRows
		for ev := range sub.Events(ctx) {
			// Events buffered before the snapshot was read may lag behind it.
			if !ev.Terminal() && ev.Processed != nil && *ev.Processed < last {
				continue
			}
			if ev.Processed != nil {
				last = *ev.Processed
			}
			if !yield(ev) {
				return
			}
		}
	}, nil
}
