package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
	"github.com/mohammadpnp/catalog-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

const claimNextSQL = `
UPDATE import_jobs
SET status = 'running', started_at = NOW(), updated_at = NOW()
WHERE id = (
    SELECT id
    FROM import_jobs
    WHERE status = 'queued'
    ORDER BY created_at
    FOR UPDATE SKIP LOCKED
    LIMIT 1
)
RETURNING id, source_name, status, total_rows, processed_rows, inserted_rows, updated_rows,
          skipped_rows, error_text, cancel_requested_at, started_at, finished_at, created_at, updated_at
`

type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Enqueue(ctx context.Context, sourceName, payload string) (string, error) {
	job := models.ImportJob{
		ID:            uuid.NewString(),
		SourceName:    sourceName,
		SourcePayload: &payload,
		Status:        string(domain.StatusQueued),
	}

	if err := r.db.WithContext(ctx).Create(&job).Error; err != nil {
		return "", fmt.Errorf("create import job: %w", err)
	}

	return job.ID, nil
}

func (r *ImportJobRepository) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	var row models.ImportJob
	err := r.db.WithContext(ctx).
		Omit("source_payload").
		First(&row, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("get import job: %w", err)
	}

	job := toDomainImportJob(row)
	return &job, nil
}

// ClaimNext moves the oldest queued job to running. Claimed rows are locked
// with SKIP LOCKED so no job is handed to two workers.
func (r *ImportJobRepository) ClaimNext(ctx context.Context) (*domain.ImportJob, error) {
	var rows []models.ImportJob
	if err := r.db.WithContext(ctx).Raw(claimNextSQL).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("claim next import job: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	job := toDomainImportJob(rows[0])
	return &job, nil
}

func (r *ImportJobRepository) LoadPayload(ctx context.Context, jobID string) (string, error) {
	var rows []models.ImportJob
	err := r.db.WithContext(ctx).
		Select("id", "source_payload").
		Where("id = ?", jobID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return "", fmt.Errorf("load import payload: %w", err)
	}
	if len(rows) == 0 {
		return "", domain.ErrJobNotFound
	}
	if rows[0].SourcePayload == nil {
		return "", errors.New("import payload is no longer stored")
	}
	return *rows[0].SourcePayload, nil
}

func (r *ImportJobRepository) SetTotal(ctx context.Context, jobID string, total int64) error {
	return r.updateRunning(ctx, jobID, map[string]any{"total_rows": total})
}

func (r *ImportJobRepository) UpdateProgress(ctx context.Context, jobID string, c domain.Counters) error {
	return r.updateRunning(ctx, jobID, counterUpdates(c))
}

func (r *ImportJobRepository) Complete(ctx context.Context, jobID string, c domain.Counters) error {
	updates := counterUpdates(c)
	updates["finished_at"] = time.Now()
	return r.transition(ctx, jobID, domain.StatusCompleted, updates)
}

func (r *ImportJobRepository) Fail(ctx context.Context, jobID string, reason string) error {
	return r.transition(ctx, jobID, domain.StatusFailed, map[string]any{
		"error_text":  reason,
		"finished_at": time.Now(),
	})
}

func (r *ImportJobRepository) MarkCancelled(ctx context.Context, jobID string, c domain.Counters) error {
	updates := counterUpdates(c)
	updates["finished_at"] = time.Now()
	return r.transition(ctx, jobID, domain.StatusCancelled, updates)
}

// RequestCancel leaves a marker the running pipeline polls. Only running
// jobs accept it.
func (r *ImportJobRepository) RequestCancel(ctx context.Context, jobID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status IN ?", jobID, sourceStatuses(domain.StatusCancelled)).
		Update("cancel_requested_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("request import job cancel: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.transitionError(ctx, jobID, domain.StatusCancelled)
	}
	return nil
}

func (r *ImportJobRepository) CancelRequested(ctx context.Context, jobID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND cancel_requested_at IS NOT NULL", jobID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check import job cancel: %w", err)
	}
	return count > 0, nil
}

// ScrubPayloads drops stored payloads of terminal jobs finished before the
// cutoff. Counters and status are kept.
func (r *ImportJobRepository) ScrubPayloads(ctx context.Context, finishedBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("status IN ? AND finished_at < ? AND source_payload IS NOT NULL",
			[]string{string(domain.StatusCompleted), string(domain.StatusFailed), string(domain.StatusCancelled)},
			finishedBefore).
		Update("source_payload", nil)
	if res.Error != nil {
		return 0, fmt.Errorf("scrub import payloads: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *ImportJobRepository) updateRunning(ctx context.Context, jobID string, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status = ?", jobID, string(domain.StatusRunning)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update import job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.transitionError(ctx, jobID, domain.StatusRunning)
	}
	return nil
}

func (r *ImportJobRepository) transition(ctx context.Context, jobID string, to domain.Status, updates map[string]any) error {
	updates["status"] = string(to)
	res := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status IN ?", jobID, sourceStatuses(to)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("move import job to %s: %w", to, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.transitionError(ctx, jobID, to)
	}
	return nil
}

var allStatuses = []domain.Status{
	domain.StatusQueued,
	domain.StatusRunning,
	domain.StatusCompleted,
	domain.StatusFailed,
	domain.StatusCancelled,
}

// sourceStatuses lists the states the job state machine lets move to `to`.
func sourceStatuses(to domain.Status) []string {
	var from []string
	for _, status := range allStatuses {
		if domain.CanTransition(status, to) {
			from = append(from, string(status))
		}
	}
	return from
}

func (r *ImportJobRepository) transitionError(ctx context.Context, jobID string, to domain.Status) error {
	job, err := r.Get(ctx, jobID)
	if err != nil {
		return err
	}
	return &domain.InvalidStateTransitionError{JobID: jobID, From: job.Status, To: to}
}

func counterUpdates(c domain.Counters) map[string]any {
	return map[string]any{
		"processed_rows": gorm.Expr("GREATEST(processed_rows, ?)", c.Processed),
		"inserted_rows":  gorm.Expr("GREATEST(inserted_rows, ?)", c.Inserted),
		"updated_rows":   gorm.Expr("GREATEST(updated_rows, ?)", c.Updated),
		"skipped_rows":   gorm.Expr("GREATEST(skipped_rows, ?)", c.Skipped),
	}
}

func toDomainImportJob(row models.ImportJob) domain.ImportJob {
	job := domain.ImportJob{
		ID:              row.ID,
		SourceName:      row.SourceName,
		Status:          domain.Status(row.Status),
		TotalRows:       row.TotalRows,
		ProcessedRows:   row.ProcessedRows,
		InsertedRows:    row.InsertedRows,
		UpdatedRows:     row.UpdatedRows,
		SkippedRows:     row.SkippedRows,
		CancelRequested: row.CancelRequestedAt != nil,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		StartedAt:       row.StartedAt,
		FinishedAt:      row.FinishedAt,
	}
	if row.ErrorText != nil {
		job.ErrorText = *row.ErrorText
	}
	return job
}
