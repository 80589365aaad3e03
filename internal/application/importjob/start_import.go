package importjob

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
)

type StartImportInput struct {
	SourceName string
	Payload    string
}

type StartImportOutput struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type StartImport interface {
	Execute(ctx context.Context, in StartImportInput) (StartImportOutput, error)
}

type importJobEnqueuer interface {
	Enqueue(ctx context.Context, sourceName, payload string) (string, error)
}

// JobNotifier is told about freshly queued jobs so idle workers do not wait
// out their poll interval.
type JobNotifier interface {
	Notify()
}

type startImport struct {
	importJobRepo importJobEnqueuer
	notifier      JobNotifier
}

// NewStartImport accepts a nil notifier when workers run in another process.
func NewStartImport(importJobRepo importJobEnqueuer, notifier JobNotifier) StartImport {
	return &startImport{importJobRepo: importJobRepo, notifier: notifier}
}

func (uc *startImport) Execute(ctx context.Context, in StartImportInput) (StartImportOutput, error) {
	sourceName := strings.TrimSpace(filepath.Base(in.SourceName))
	if sourceName == "" || sourceName == "." || strings.ToLower(filepath.Ext(sourceName)) != ".csv" {
		return StartImportOutput{}, ErrInvalidImportSource
	}

	payload := SanitizePayload(in.Payload)
	if strings.TrimSpace(payload) == "" {
		return StartImportOutput{}, ErrEmptyImportSource
	}

	jobID, err := uc.importJobRepo.Enqueue(ctx, sourceName, payload)
	if err != nil {
		return StartImportOutput{}, fmt.Errorf("%w: %v", ErrEnqueueImportJob, err)
	}

	if uc.notifier != nil {
		uc.notifier.Notify()
	}

	return StartImportOutput{
		JobID:  jobID,
		Status: string(domain.StatusQueued),
	}, nil
}

// SanitizePayload replaces invalid UTF-8 and strips NUL bytes, which the
// text column cannot hold.
func SanitizePayload(payload string) string {
	payload = strings.ToValidUTF8(payload, "\uFFFD")
	return strings.ReplaceAll(payload, "\x00", "")
}
