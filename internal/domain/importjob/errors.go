package importjob

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound            = errors.New("import job not found")
	ErrInvalidStateTransition = errors.New("invalid import job state transition")
	ErrTooManySkippedRows     = errors.New("too many skipped rows")
)

// InvalidStateTransitionError names the status that blocked the request.
type InvalidStateTransitionError struct {
	JobID string
	From  Status
	To    Status
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("import job %s cannot move from %s to %s", e.JobID, e.From, e.To)
}

func (e *InvalidStateTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

// SourceReadError marks failures to read or decode the stored payload.
type SourceReadError struct {
	Err error
}

func (e *SourceReadError) Error() string {
	return "read import source: " + e.Err.Error()
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}
