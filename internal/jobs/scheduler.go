package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/worklink/worklink-api/internal/domain/store"
)

// Scheduler runs the periodic background jobs. The only job today is the
// entitlement expiry sweep; it is idempotent, so an overlapping or
// repeated run is harmless.
type Scheduler struct {
	cron     *cron.Cron
	storeSvc *store.Service
}

// NewScheduler creates the background job scheduler
func NewScheduler(storeSvc *store.Service) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		storeSvc: storeSvc,
	}
}

// Start registers and starts the jobs. sweepSpec is a standard cron
// expression.
func (s *Scheduler) Start(ctx context.Context, sweepSpec string) error {
	_, err := s.cron.AddFunc(sweepSpec, func() {
		count, err := s.storeSvc.ExpireEntitlements(ctx)
		if err != nil {
			log.Error().Err(err).Msg("entitlement expiry sweep failed")
			return
		}
		log.Debug().Int64("count", count).Msg("entitlement expiry sweep finished")
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Info().Str("sweep_spec", sweepSpec).Msg("Background scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Background scheduler stopped")
}
