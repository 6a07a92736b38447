// Package schedule runs the periodic background jobs: full-universe
// analysis updates and news refreshes.
package schedule

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"pairsight/internal/config"
	"pairsight/internal/service"
)

// Scheduler drives the service on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	svc    *service.Service
	cfg    config.ScheduleConfig
	logger zerolog.Logger
}

// New creates a scheduler. Jobs are registered on Start.
func New(svc *service.Service, cfg config.ScheduleConfig, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the jobs and starts the cron loop. Jobs inherit ctx so a
// shutdown cancels in-flight runs.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.UpdateCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.UpdateCron, func() { s.runUpdate(ctx) }); err != nil {
			return err
		}
		s.logger.Info().Str("cron", s.cfg.UpdateCron).Msg("Scheduled bulk updates")
	}

	if s.cfg.NewsCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.NewsCron, func() { s.runNews(ctx) }); err != nil {
			return err
		}
		s.logger.Info().Str("cron", s.cfg.NewsCron).Msg("Scheduled news refresh")
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runUpdate(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := s.svc.UpdateAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled update failed")
		return
	}
	s.logger.Info().
		Int("updated", report.Updated).
		Int("failed", report.Failed).
		Msg("Scheduled update finished")
}

func (s *Scheduler) runNews(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	inserted, err := s.svc.RefreshNews(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled news refresh failed")
		return
	}
	s.logger.Info().Int("inserted", inserted).Msg("Scheduled news refresh finished")
}
