package importjob

import "context"

// CancellationToken is polled by the pipeline between rows and at every
// batch boundary.
type CancellationToken interface {
	Cancelled(ctx context.Context) (bool, error)
}

type cancelFlagReader interface {
	CancelRequested(ctx context.Context, jobID string) (bool, error)
}

type storeCancellationToken struct {
	repo  cancelFlagReader
	jobID string
}

// NewStoreCancellationToken reads the cancel marker left on the job row.
func NewStoreCancellationToken(repo cancelFlagReader, jobID string) CancellationToken {
	return &storeCancellationToken{repo: repo, jobID: jobID}
}

func (t *storeCancellationToken) Cancelled(ctx context.Context) (bool, error) {
	return t.repo.CancelRequested(ctx, t.jobID)
}
