package source

import (
	"context"
	"fmt"
	"io"
	"strings"
)

type payloadLoader interface {
	LoadPayload(ctx context.Context, jobID string) (string, error)
}

// StoredPayload opens the delimited text kept on the job row. The worker
// never touches the filesystem, so it can run apart from the API process.
type StoredPayload struct {
	loader payloadLoader
}

func NewStoredPayload(loader payloadLoader) *StoredPayload {
	return &StoredPayload{loader: loader}
}

func (s *StoredPayload) Open(ctx context.Context, jobID string) (io.ReadCloser, error) {
	payload, err := s.loader.LoadPayload(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("open payload of job %s: %w", jobID, err)
	}
	return io.NopCloser(strings.NewReader(payload)), nil
}
