package importjob

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
)

type CancelImportJobInput struct {
	ID string
}

type CancelImportJobOutput struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type CancelImportJob interface {
	Execute(ctx context.Context, in CancelImportJobInput) (CancelImportJobOutput, error)
}

type cancelRequester interface {
	RequestCancel(ctx context.Context, jobID string) error
}

type cancelImportJob struct {
	repo cancelRequester
}

func NewCancelImportJob(repo cancelRequester) CancelImportJob {
	return &cancelImportJob{repo: repo}
}

// Execute only records the request. The running pipeline observes it at its
// next checkpoint and moves the job to cancelled itself. A job that is not
// running yields a *domain.InvalidStateTransitionError naming its status.
func (uc *cancelImportJob) Execute(ctx context.Context, in CancelImportJobInput) (CancelImportJobOutput, error) {
	if err := validateJobID(in.ID); err != nil {
		return CancelImportJobOutput{}, err
	}

	if err := uc.repo.RequestCancel(ctx, in.ID); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return CancelImportJobOutput{}, ErrImportJobNotFound
		}
		var transitionErr *domain.InvalidStateTransitionError
		if errors.As(err, &transitionErr) {
			return CancelImportJobOutput{}, transitionErr
		}
		return CancelImportJobOutput{}, fmt.Errorf("%w: %v", ErrCancelImportJob, err)
	}

	return CancelImportJobOutput{
		JobID:   in.ID,
		Status:  string(domain.StatusRunning),
		Message: "cancellation requested",
	}, nil
}
