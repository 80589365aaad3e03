package importjob

import (
	"context"
	"fmt"
	"log"
	"time"
)

type payloadScrubber interface {
	ScrubPayloads(ctx context.Context, finishedBefore time.Time) (int64, error)
}

// ScrubPayloads drops the stored source text of jobs that finished more than
// retention ago. Job rows and counters stay.
type ScrubPayloads struct {
	repo      payloadScrubber
	retention time.Duration
	now       func() time.Time
}

func NewScrubPayloads(repo payloadScrubber, retention time.Duration) *ScrubPayloads {
	return &ScrubPayloads{repo: repo, retention: retention, now: time.Now}
}

func (uc *ScrubPayloads) Enabled() bool {
	return uc.retention > 0
}

func (uc *ScrubPayloads) Execute(ctx context.Context) (int64, error) {
	if !uc.Enabled() {
		return 0, nil
	}

	scrubbed, err := uc.repo.ScrubPayloads(ctx, uc.now().Add(-uc.retention))
	if err != nil {
		return 0, fmt.Errorf("scrub import payloads: %w", err)
	}
	if scrubbed > 0 {
		log.Printf("scrubbed stored payloads of %d finished import jobs", scrubbed)
	}
	return scrubbed, nil
}
