package bootstrap

import (
	"context"
	"fmt"
	"log"

	importapp "github.com/mohammadpnp/catalog-import/internal/application/importjob"
	"github.com/robfig/cron/v3"
)

// ScrubScheduler runs the payload scrub on a cron schedule.
type ScrubScheduler struct {
	scrub    *importapp.ScrubPayloads
	cron     *cron.Cron
	schedule string
}

func NewScrubScheduler(scrub *importapp.ScrubPayloads, schedule string) (*ScrubScheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid payload scrub schedule %q: %w", schedule, err)
	}
	return &ScrubScheduler{
		scrub:    scrub,
		cron:     cron.New(),
		schedule: schedule,
	}, nil
}

func (s *ScrubScheduler) Start(ctx context.Context) {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.scrub.Execute(ctx); err != nil {
			log.Printf("payload scrub failed: %v", err)
		}
	})
	if err != nil {
		log.Printf("schedule payload scrub: %v", err)
		return
	}
	s.cron.Start()
	log.Printf("payload scrub scheduled %s", s.schedule)
}

func (s *ScrubScheduler) Stop() {
	<-s.cron.Stop().Done()
}
