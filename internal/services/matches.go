package services

import (
	"context"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/careerpilot/backend/internal/entities"
	"github.com/careerpilot/backend/internal/events"
	"github.com/careerpilot/backend/internal/match"
	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

// matchScanCap bounds how many active jobs one ranking request scores.
const matchScanCap = 500

type activeJobsRepository interface {
	GetActive(ctx context.Context, cap int) ([]entities.Job, error)
}

// Matches ranks active jobs against a user's profile. Results are cached
// per user and flushed whenever a sync run lands new jobs.
type Matches struct {
	jobs     activeJobsRepository
	profiles profileRepository
	ranker   *match.Ranker
	cache    *gocache.Cache
}

func NewMatches(bus EventBus.Bus, jobs activeJobsRepository, profiles profileRepository) (*Matches, error) {

	m := &Matches{
		jobs:     jobs,
		profiles: profiles,
		ranker:   match.NewRanker(match.DefaultWeights()),
		cache:    gocache.New(10*time.Minute, 20*time.Minute),
	}

	if err := bus.Subscribe(events.SyncCompletedTopic, m.onSyncCompletedEvent); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Matches) GetMatches(ctx context.Context, userID string, limit int) ([]match.Result, error) {

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if cached, found := m.cache.Get(userID); found {
		results := cached.([]match.Result)
		if limit < len(results) {
			return results[:limit], nil
		}
		return results, nil
	}

	profile, err := m.profiles.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		// no profile yet: rank with an empty preference set
		profile = &entities.JobProfile{UserID: userID}
	}

	jobs, err := m.jobs.GetActive(ctx, matchScanCap)
	if err != nil {
		return nil, err
	}

	results := m.ranker.Rank(jobs, *profile, time.Now().UTC(), matchScanCap)

	if err = m.cache.Add(userID, results, gocache.DefaultExpiration); err != nil {
		log.Errorf("failed to cache match results: %v", err)
	}

	if limit < len(results) {
		return results[:limit], nil
	}
	return results, nil
}

// InvalidateUser drops a user's cached ranking, e.g. after a profile edit.
func (m *Matches) InvalidateUser(userID string) {
	m.cache.Delete(userID)
}

func (m *Matches) onSyncCompletedEvent(event events.SyncCompleted) {
	if event.JobsCreated > 0 || event.JobsUpdated > 0 {
		m.cache.Flush()
	}
}
