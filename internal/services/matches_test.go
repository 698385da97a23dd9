package services

import (
	"context"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/careerpilot/backend/internal/entities"
	"github.com/careerpilot/backend/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockActiveJobs struct {
	mock.Mock
}

func (m *mockActiveJobs) GetActive(ctx context.Context, cap int) ([]entities.Job, error) {
	args := m.Called(ctx, cap)
	return args.Get(0).([]entities.Job), args.Error(1)
}

func activeJobsFixture() []entities.Job {
	return []entities.Job{
		{Fingerprint: "a", Title: "Go Developer", CompanyName: "Acme", Skills: "go",
			PostedAt: time.Now().UTC().AddDate(0, 0, -1)},
		{Fingerprint: "b", Title: "Accountant", CompanyName: "Globex",
			PostedAt: time.Now().UTC().AddDate(0, 0, -10)},
	}
}

func Test_GetMatches_ShouldRankAndCachePerUser(t *testing.T) {

	assert := assert.New(t)

	jobs := &mockActiveJobs{}
	jobs.On("GetActive", mock.Anything, matchScanCap).Return(activeJobsFixture(), nil).Once()

	profiles := &mockProfiles{}
	profiles.On("GetByUser", mock.Anything, "user-1").
		Return(&entities.JobProfile{UserID: "user-1", Skills: "go"}, nil).Once()

	matches, err := NewMatches(EventBus.New(), jobs, profiles)
	assert.NoError(err)

	first, err := matches.GetMatches(context.Background(), "user-1", 20)
	assert.NoError(err)
	assert.Len(first, 2)
	assert.Equal("a", first[0].Job.Fingerprint)

	// second call is served from cache
	second, err := matches.GetMatches(context.Background(), "user-1", 1)
	assert.NoError(err)
	assert.Len(second, 1)
	jobs.AssertExpectations(t)
	profiles.AssertExpectations(t)
}

func Test_GetMatches_WhenUserHasNoProfile_ShouldRankWithEmptyPreferences(t *testing.T) {

	assert := assert.New(t)

	jobs := &mockActiveJobs{}
	jobs.On("GetActive", mock.Anything, matchScanCap).Return(activeJobsFixture(), nil)

	profiles := &mockProfiles{}
	profiles.On("GetByUser", mock.Anything, "user-2").Return(nil, nil)

	matches, err := NewMatches(EventBus.New(), jobs, profiles)
	assert.NoError(err)

	results, err := matches.GetMatches(context.Background(), "user-2", 20)
	assert.NoError(err)
	assert.Len(results, 2)
}

func Test_GetMatches_WhenSyncLandsNewJobs_ShouldFlushCache(t *testing.T) {

	assert := assert.New(t)

	jobs := &mockActiveJobs{}
	jobs.On("GetActive", mock.Anything, matchScanCap).Return(activeJobsFixture(), nil).Twice()

	profiles := &mockProfiles{}
	profiles.On("GetByUser", mock.Anything, "user-1").
		Return(&entities.JobProfile{UserID: "user-1"}, nil).Twice()

	bus := EventBus.New()
	matches, err := NewMatches(bus, jobs, profiles)
	assert.NoError(err)

	_, err = matches.GetMatches(context.Background(), "user-1", 20)
	assert.NoError(err)

	bus.Publish(events.SyncCompletedTopic, events.SyncCompleted{RunID: "run", JobsCreated: 3})
	bus.WaitAsync()

	_, err = matches.GetMatches(context.Background(), "user-1", 20)
	assert.NoError(err)
	jobs.AssertExpectations(t)
}
