package importjob_test

import (
	"context"
	"errors"
	"testing"

	app "github.com/mohammadpnp/catalog-import/internal/application/importjob"
	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
)

func TestCancelImportJobRequestsCancel(t *testing.T) {
	t.Parallel()

	store := &fakeJobStore{}
	out, err := app.NewCancelImportJob(store).Execute(context.Background(), app.CancelImportJobInput{ID: knownJobID})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if out.JobID != knownJobID {
		t.Fatalf("unexpected output %+v", out)
	}
	if len(store.requested) != 1 || store.requested[0] != knownJobID {
		t.Fatalf("expected one cancel request, got %v", store.requested)
	}
}

func TestCancelImportJobNamesCurrentStatus(t *testing.T) {
	t.Parallel()

	store := &fakeJobStore{cancelErr: &domain.InvalidStateTransitionError{
		JobID: knownJobID,
		From:  domain.StatusCompleted,
		To:    domain.StatusCancelled,
	}}

	_, err := app.NewCancelImportJob(store).Execute(context.Background(), app.CancelImportJobInput{ID: knownJobID})
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}

	var transitionErr *domain.InvalidStateTransitionError
	if !errors.As(err, &transitionErr) || transitionErr.From != domain.StatusCompleted {
		t.Fatalf("expected current status completed, got %v", err)
	}
}

func TestCancelImportJobErrors(t *testing.T) {
	t.Parallel()

	if _, err := app.NewCancelImportJob(&fakeJobStore{}).Execute(context.Background(), app.CancelImportJobInput{ID: "42"}); !errors.Is(err, app.ErrInvalidJobID) {
		t.Fatalf("expected ErrInvalidJobID, got %v", err)
	}

	missing := app.NewCancelImportJob(&fakeJobStore{cancelErr: domain.ErrJobNotFound})
	if _, err := missing.Execute(context.Background(), app.CancelImportJobInput{ID: knownJobID}); !errors.Is(err, app.ErrImportJobNotFound) {
		t.Fatalf("expected ErrImportJobNotFound, got %v", err)
	}

	failing := app.NewCancelImportJob(&fakeJobStore{cancelErr: errors.New("deadlock")})
	if _, err := failing.Execute(context.Background(), app.CancelImportJobInput{ID: knownJobID}); !errors.Is(err, app.ErrCancelImportJob) {
		t.Fatalf("expected ErrCancelImportJob, got %v", err)
	}
}
