package importjob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
	"github.com/mohammadpnp/catalog-import/internal/domain/product"
	"github.com/mohammadpnp/catalog-import/internal/domain/webhook"
)

const finalizeTimeout = 10 * time.Second

type ImportSource interface {
	Open(ctx context.Context, jobID string) (io.ReadCloser, error)
}

type BatchUpserter interface {
	UpsertBatch(ctx context.Context, records []product.Record) (product.BatchResult, error)
}

type ProgressPublisher interface {
	Publish(ctx context.Context, jobID string, ev domain.ProgressEvent) error
}

type EventDispatcher interface {
	DispatchAsync(ctx context.Context, event string, data map[string]any)
}

type importWorkerJobRepo interface {
	ClaimNext(ctx context.Context) (*domain.ImportJob, error)
	SetTotal(ctx context.Context, jobID string, total int64) error
	UpdateProgress(ctx context.Context, jobID string, c domain.Counters) error
	Complete(ctx context.Context, jobID string, c domain.Counters) error
	Fail(ctx context.Context, jobID string, reason string) error
	MarkCancelled(ctx context.Context, jobID string, c domain.Counters) error
	CancelRequested(ctx context.Context, jobID string) (bool, error)
}

type ImportWorkerConfig struct {
	Workers      int
	BatchSize    int
	PollInterval time.Duration
	// CancelCheckEvery is the number of rows between cancellation checks.
	// Every batch boundary is checked as well.
	CancelCheckEvery int
	// MaxSkippedPercent fails a job whose skipped rows exceed this share
	// of its total. Zero disables the check.
	MaxSkippedPercent int
}

// ImportWorker claims queued jobs and runs each through the import
// pipeline: parse, validate, batch, upsert, report.
type ImportWorker struct {
	repo       importWorkerJobRepo
	source     ImportSource
	upserter   BatchUpserter
	publisher  ProgressPublisher
	dispatcher EventDispatcher
	cfg        ImportWorkerConfig
	now        func() time.Time

	wake chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewImportWorker(
	repo importWorkerJobRepo,
	source ImportSource,
	upserter BatchUpserter,
	publisher ProgressPublisher,
	dispatcher EventDispatcher,
	cfg ImportWorkerConfig,
) *ImportWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.CancelCheckEvery <= 0 {
		cfg.CancelCheckEvery = 100
	}
	if cfg.MaxSkippedPercent < 0 {
		cfg.MaxSkippedPercent = 0
	}

	return &ImportWorker{
		repo:       repo,
		source:     source,
		upserter:   upserter,
		publisher:  publisher,
		dispatcher: dispatcher,
		cfg:        cfg,
		now:        time.Now,
		wake:       make(chan struct{}, 1),
	}
}

func (w *ImportWorker) Start(ctx context.Context) {
	w.once.Do(func() {
		for i := 0; i < w.cfg.Workers; i++ {
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.workerLoop(ctx)
			}()
		}
	})
}

// Wait blocks until every worker loop has returned.
func (w *ImportWorker) Wait() {
	w.wg.Wait()
}

// Notify wakes one idle worker. It never blocks.
func (w *ImportWorker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *ImportWorker) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.repo.ClaimNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("claim next import job failed: %v", err)
			if !w.idle(ctx) {
				return
			}
			continue
		}

		if job == nil {
			if !w.idle(ctx) {
				return
			}
			continue
		}

		if err := w.ProcessJob(ctx, *job, NewStoreCancellationToken(w.repo, job.ID)); err != nil {
			log.Printf("process import job %s failed: %v", job.ID, err)
		}
	}
}

func (w *ImportWorker) idle(ctx context.Context) bool {
	timer := time.NewTimer(w.cfg.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-w.wake:
		return true
	case <-timer.C:
		return true
	}
}

// ProcessJob runs one claimed job to a terminal state. Batches already
// applied stay applied whatever the outcome. A cancelled job is not an
// error.
func (w *ImportWorker) ProcessJob(ctx context.Context, job domain.ImportJob, token CancellationToken) error {
	started := w.now()
	if job.StartedAt != nil {
		started = *job.StartedAt
	}
	log.Printf("import job %s: started (%s)", job.ID, job.SourceName)

	total, err := w.countRows(ctx, job.ID)
	if err != nil {
		return w.fail(ctx, job.ID, err)
	}
	if err := w.repo.SetTotal(ctx, job.ID, total); err != nil {
		return w.fail(ctx, job.ID, fmt.Errorf("set total rows: %w", err))
	}
	w.publish(ctx, job.ID, domain.ProcessingEvent(job.ID, domain.Counters{}, &total,
		fmt.Sprintf("Starting import of %d rows", total)))

	reader, err := w.source.Open(ctx, job.ID)
	if err != nil {
		return w.fail(ctx, job.ID, &domain.SourceReadError{Err: err})
	}
	defer reader.Close()

	rows, err := newRowReader(reader)
	if err != nil {
		return w.fail(ctx, job.ID, err)
	}

	var (
		applied        domain.Counters
		pendingRows    int64
		pendingSkipped int64
		sinceCheck     int
	)
	batch := make([]product.Record, 0, w.cfg.BatchSize)

	flush := func() error {
		if pendingRows == 0 {
			return nil
		}

		var result product.BatchResult
		if len(batch) > 0 {
			var err error
			result, err = w.upserter.UpsertBatch(ctx, batch)
			if err != nil {
				return fmt.Errorf("upsert batch: %w", err)
			}
		}

		applied.Processed += pendingRows
		applied.Inserted += result.Inserted
		applied.Updated += result.Updated
		applied.Skipped += pendingSkipped + result.Skipped

		if err := w.repo.UpdateProgress(ctx, job.ID, applied); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
		w.publish(ctx, job.ID, domain.ProcessingEvent(job.ID, applied, &total,
			fmt.Sprintf("Processed %d of %d rows", applied.Processed, total)))

		batch = batch[:0]
		pendingRows = 0
		pendingSkipped = 0
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return w.fail(ctx, job.ID, fmt.Errorf("worker stopped: %w", err))
		}

		outcome, err := rows.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return w.fail(ctx, job.ID, err)
		}

		pendingRows++
		if outcome.Ok() {
			batch = append(batch, outcome.Record)
		} else {
			pendingSkipped++
		}

		sinceCheck++
		if sinceCheck >= w.cfg.CancelCheckEvery {
			sinceCheck = 0
			if w.cancelled(ctx, job.ID, token) {
				return w.cancel(ctx, job.ID, applied)
			}
		}

		if len(batch) >= w.cfg.BatchSize {
			if err := flush(); err != nil {
				return w.fail(ctx, job.ID, err)
			}
			sinceCheck = 0
			if w.cancelled(ctx, job.ID, token) {
				return w.cancel(ctx, job.ID, applied)
			}
		}
	}

	if err := flush(); err != nil {
		return w.fail(ctx, job.ID, err)
	}

	if w.tooManySkipped(applied, total) {
		return w.fail(ctx, job.ID, fmt.Errorf("%w: %d of %d rows skipped, limit is %d%%",
			domain.ErrTooManySkippedRows, applied.Skipped, total, w.cfg.MaxSkippedPercent))
	}

	return w.complete(ctx, job, applied, total, started)
}

func (w *ImportWorker) countRows(ctx context.Context, jobID string) (int64, error) {
	reader, err := w.source.Open(ctx, jobID)
	if err != nil {
		return 0, &domain.SourceReadError{Err: err}
	}
	defer reader.Close()

	return countRows(reader)
}

func (w *ImportWorker) tooManySkipped(c domain.Counters, total int64) bool {
	if w.cfg.MaxSkippedPercent == 0 || total == 0 {
		return false
	}
	return c.Skipped*100 > int64(w.cfg.MaxSkippedPercent)*total
}

func (w *ImportWorker) cancelled(ctx context.Context, jobID string, token CancellationToken) bool {
	if token == nil {
		return false
	}
	requested, err := token.Cancelled(ctx)
	if err != nil {
		log.Printf("import job %s: cancellation check failed: %v", jobID, err)
		return false
	}
	return requested
}

func (w *ImportWorker) complete(ctx context.Context, job domain.ImportJob, c domain.Counters, total int64, started time.Time) error {
	if err := w.repo.Complete(ctx, job.ID, c); err != nil {
		return w.fail(ctx, job.ID, fmt.Errorf("complete job: %w", err))
	}

	elapsed := w.now().Sub(started)
	log.Printf("import job %s: completed in %s, %d rows (%d new, %d updated, %d skipped)",
		job.ID, elapsed.Round(time.Millisecond), c.Processed, c.Inserted, c.Updated, c.Skipped)
	w.publish(ctx, job.ID, domain.CompleteEvent(job.ID, c, &total))

	if w.dispatcher != nil {
		w.dispatcher.DispatchAsync(ctx, webhook.EventImportCompleted, map[string]any{
			"job_id":          job.ID,
			"source_name":     job.SourceName,
			"total_rows":      total,
			"processed_rows":  c.Processed,
			"inserted_rows":   c.Inserted,
			"updated_rows":    c.Updated,
			"skipped_rows":    c.Skipped,
			"elapsed_seconds": elapsed.Seconds(),
		})
	}
	return nil
}

func (w *ImportWorker) cancel(ctx context.Context, jobID string, c domain.Counters) error {
	ctx, cancel := finalizeContext(ctx)
	defer cancel()

	if err := w.repo.MarkCancelled(ctx, jobID, c); err != nil {
		return fmt.Errorf("mark job cancelled: %w", err)
	}

	log.Printf("import job %s: cancelled after %d rows", jobID, c.Processed)
	w.publish(ctx, jobID, domain.CancelledEvent(jobID, c.Processed))
	return nil
}

func (w *ImportWorker) fail(ctx context.Context, jobID string, err error) error {
	ctx, cancel := finalizeContext(ctx)
	defer cancel()

	reason := truncateReason(err.Error())
	if failErr := w.repo.Fail(ctx, jobID, reason); failErr != nil {
		return fmt.Errorf("%v; fail update failed: %w", err, failErr)
	}

	log.Printf("import job %s: failed: %s", jobID, reason)
	w.publish(ctx, jobID, domain.ErrorEvent(jobID, reason))
	return err
}

func (w *ImportWorker) publish(ctx context.Context, jobID string, ev domain.ProgressEvent) {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.Publish(ctx, jobID, ev); err != nil {
		log.Printf("import job %s: publish %s event failed: %v", jobID, ev.Status, err)
	}
}

// finalizeContext keeps terminal writes alive when the worker is shutting down.
func finalizeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
}

// truncateReason keeps at most 1000 characters of valid UTF-8 without NUL
// bytes, which the error_text column rejects.
func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.ToValidUTF8(reason, "\uFFFD")
	reason = strings.TrimSpace(strings.ReplaceAll(reason, "\x00", ""))
	if utf8.RuneCountInString(reason) <= maxLen {
		return reason
	}
	return string([]rune(reason)[:maxLen])
}
