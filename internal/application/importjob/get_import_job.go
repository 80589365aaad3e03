package importjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
)

type GetImportJobInput struct {
	ID string
}

type GetImportJobOutput struct {
	ID              string     `json:"id"`
	SourceName      string     `json:"source_name"`
	Status          string     `json:"status"`
	TotalRows       *int64     `json:"total_rows"`
	ProcessedRows   int64      `json:"processed_rows"`
	InsertedRows    int64      `json:"inserted_rows"`
	UpdatedRows     int64      `json:"updated_rows"`
	SkippedRows     int64      `json:"skipped_rows"`
	Percent         *int       `json:"percent"`
	Error           string     `json:"error,omitempty"`
	CancelRequested bool       `json:"cancel_requested"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

type GetImportJob interface {
	Execute(ctx context.Context, in GetImportJobInput) (GetImportJobOutput, error)
}

type importJobReader interface {
	Get(ctx context.Context, jobID string) (*domain.ImportJob, error)
}

type getImportJob struct {
	repo importJobReader
}

func NewGetImportJob(repo importJobReader) GetImportJob {
	return &getImportJob{repo: repo}
}

func (uc *getImportJob) Execute(ctx context.Context, in GetImportJobInput) (GetImportJobOutput, error) {
	if err := validateJobID(in.ID); err != nil {
		return GetImportJobOutput{}, err
	}

	job, err := uc.repo.Get(ctx, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return GetImportJobOutput{}, ErrImportJobNotFound
		}
		return GetImportJobOutput{}, fmt.Errorf("%w: %v", ErrGetImportJob, err)
	}

	return GetImportJobOutput{
		ID:              job.ID,
		SourceName:      job.SourceName,
		Status:          string(job.Status),
		TotalRows:       job.TotalRows,
		ProcessedRows:   job.ProcessedRows,
		InsertedRows:    job.InsertedRows,
		UpdatedRows:     job.UpdatedRows,
		SkippedRows:     job.SkippedRows,
		Percent:         domain.Percent(job.ProcessedRows, job.TotalRows),
		Error:           job.ErrorText,
		CancelRequested: job.CancelRequested,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
		StartedAt:       job.StartedAt,
		FinishedAt:      job.FinishedAt,
	}, nil
}

func validateJobID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidJobID
	}
	return nil
}
