package services

import (
	"context"
	"time"

	"github.com/careerpilot/backend/internal/config"
	"github.com/careerpilot/backend/internal/ingest"
	"github.com/careerpilot/backend/internal/logger"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type staleJobsRepository interface {
	MarkStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// SyncScheduler runs the ingestion pipeline on a schedule and sweeps jobs
// that no sync has seen for a while into the stale state.
type SyncScheduler struct {
	pipeline       *ingest.Pipeline
	jobs           staleJobsRepository
	cron           *cron.Cron
	staleAfterDays int
}

func NewSyncScheduler(pipeline *ingest.Pipeline, jobs staleJobsRepository,
	cfg config.PipelineConfig) (*SyncScheduler, error) {

	if cfg.StaleAfterDays <= 0 {
		return nil, errors.New("stale after days must be greater than zero")
	}

	s := &SyncScheduler{
		pipeline:       pipeline,
		jobs:           jobs,
		cron:           cron.New(),
		staleAfterDays: cfg.StaleAfterDays,
	}

	if cfg.SyncSchedule != "" {
		if _, err := s.cron.AddFunc(cfg.SyncSchedule, s.runScheduledSync); err != nil {
			return nil, err
		}
	}

	if _, err := s.cron.AddFunc("0 3 * * *", s.sweepStaleJobs); err != nil {
		return nil, err
	}

	s.cron.Start()
	log.Infof("sync scheduler started, schedule: %q, stale after days: %d",
		cfg.SyncSchedule, cfg.StaleAfterDays)
	return s, nil
}

func (s *SyncScheduler) Stop() {
	s.cron.Stop()
}

func (s *SyncScheduler) runScheduledSync() {
	result := s.pipeline.Run(context.Background())
	if !result.Success {
		log.Errorf("scheduled sync %v failed: %v", result.RunID, result.Errors)
	}
}

func (s *SyncScheduler) sweepStaleJobs() {
	cutoff := time.Now().AddDate(0, 0, -s.staleAfterDays)
	rowsAffected, err := s.jobs.MarkStale(context.Background(), cutoff)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to mark stale jobs: %v", err)
	} else {
		log.Infof("stale sweep finished, affected rows: %v", rowsAffected)
	}
}
