package importjob

import "time"

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CanTransition reports whether the job state machine allows from -> to.
// Terminal states never transition again.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusQueued:
		return to == StatusRunning
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	default:
		return false
	}
}

type ImportJob struct {
	ID              string
	SourceName      string
	Status          Status
	TotalRows       *int64
	ProcessedRows   int64
	InsertedRows    int64
	UpdatedRows     int64
	SkippedRows     int64
	ErrorText       string
	CancelRequested bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       *time.Time
	FinishedAt      *time.Time
}

func (j ImportJob) Counters() Counters {
	return Counters{
		Processed: j.ProcessedRows,
		Inserted:  j.InsertedRows,
		Updated:   j.UpdatedRows,
		Skipped:   j.SkippedRows,
	}
}

// Elapsed is the wall time between start and finish, zero until both are set.
func (j ImportJob) Elapsed() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}

// Counters are cumulative for one job and only ever grow while it runs.
type Counters struct {
	Processed int64
	Inserted  int64
	Updated   int64
	Skipped   int64
}

// Percent is floor(processed*100/total), or nil while the total is unknown.
func Percent(processed int64, total *int64) *int {
	if total == nil {
		return nil
	}
	p := 100
	if *total > 0 {
		p = int(processed * 100 / *total)
		if p > 100 {
			p = 100
		}
	}
	return &p
}
