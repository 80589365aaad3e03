package importjob

import "errors"

var (
	ErrInvalidImportSource = errors.New("invalid import source")
	ErrEmptyImportSource   = errors.New("import source is empty")
	ErrEnqueueImportJob    = errors.New("failed to enqueue import job")
	ErrInvalidJobID        = errors.New("invalid import job id")
	ErrImportJobNotFound   = errors.New("import job not found")
	ErrGetImportJob        = errors.New("failed to get import job")
	ErrCancelImportJob     = errors.New("failed to cancel import job")
)
