package importjob

import "fmt"

type EventStatus string

const (
	EventConnected  EventStatus = "connected"
	EventProcessing EventStatus = "processing"
	EventComplete   EventStatus = "complete"
	EventError      EventStatus = "error"
	EventCancelled  EventStatus = "cancelled"
)

// ProgressEvent is the ephemeral message pushed to progress subscribers.
type ProgressEvent struct {
	JobID     string      `json:"job_id"`
	Status    EventStatus `json:"status"`
	Processed *int64      `json:"processed,omitempty"`
	Total     *int64      `json:"total,omitempty"`
	Inserted  *int64      `json:"inserted,omitempty"`
	Updated   *int64      `json:"updated,omitempty"`
	Skipped   *int64      `json:"skipped,omitempty"`
	Percent   *int        `json:"percent,omitempty"`
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
}

func (e ProgressEvent) Terminal() bool {
	return e.Status == EventComplete || e.Status == EventError || e.Status == EventCancelled
}

func ConnectedEvent(jobID string) ProgressEvent {
	return ProgressEvent{JobID: jobID, Status: EventConnected, Message: "connected"}
}

func ProcessingEvent(jobID string, c Counters, total *int64, message string) ProgressEvent {
	ev := countersEvent(jobID, EventProcessing, c, total)
	ev.Message = message
	return ev
}

func CompleteEvent(jobID string, c Counters, total *int64) ProgressEvent {
	ev := countersEvent(jobID, EventComplete, c, total)
	ev.Message = fmt.Sprintf("Import complete! Processed %d rows (%d new, %d updated, %d skipped)",
		c.Processed, c.Inserted, c.Updated, c.Skipped)
	return ev
}

func ErrorEvent(jobID string, errText string) ProgressEvent {
	return ProgressEvent{
		JobID:   jobID,
		Status:  EventError,
		Error:   errText,
		Message: "Import failed: " + errText,
	}
}

func CancelledEvent(jobID string, processed int64) ProgressEvent {
	return ProgressEvent{
		JobID:     jobID,
		Status:    EventCancelled,
		Processed: &processed,
		Message:   fmt.Sprintf("Import cancelled after processing %d rows", processed),
	}
}

// SnapshotEvent describes a stored job the way the pipeline would have
// announced its current state. Late subscribers start from it.
func SnapshotEvent(job ImportJob) ProgressEvent {
	switch job.Status {
	case StatusCompleted:
		return CompleteEvent(job.ID, job.Counters(), job.TotalRows)
	case StatusFailed:
		return ErrorEvent(job.ID, job.ErrorText)
	case StatusCancelled:
		return CancelledEvent(job.ID, job.ProcessedRows)
	case StatusRunning:
		return ProcessingEvent(job.ID, job.Counters(), job.TotalRows, fmt.Sprintf("Processed %d rows", job.ProcessedRows))
	default:
		return ProcessingEvent(job.ID, job.Counters(), job.TotalRows, "Waiting for a worker")
	}
}

func countersEvent(jobID string, status EventStatus, c Counters, total *int64) ProgressEvent {
	processed, inserted, updated, skipped := c.Processed, c.Inserted, c.Updated, c.Skipped
	return ProgressEvent{
		JobID:     jobID,
		Status:    status,
		Processed: &processed,
		Total:     total,
		Inserted:  &inserted,
		Updated:   &updated,
		Skipped:   &skipped,
		Percent:   Percent(processed, total),
	}
}
