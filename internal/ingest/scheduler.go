package ingest

import (
	"context"
	"log"
	"time"

	"github.com/dmeza/limaq/internal/models"
)

// Scheduler re-runs ingestion on a fixed interval. Each pass is
// independent; nothing is carried between runs except what lands on disk
// and in the stage.
type Scheduler struct {
	runner    *Runner
	locations []models.Location
	interval  time.Duration
}

func NewScheduler(runner *Runner, locations []models.Location, interval time.Duration) *Scheduler {
	return &Scheduler{runner: runner, locations: locations, interval: interval}
}

// Run ingests once immediately, then on every tick until the context is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.runner.Run(ctx, s.locations)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-ticker.C:
			s.runner.Run(ctx, s.locations)
		}
	}
}
