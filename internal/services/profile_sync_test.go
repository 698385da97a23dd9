package services

import (
	"context"
	"testing"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockAiClient struct {
	mock.Mock
}

func (m *mockAiClient) GenerateResponse(ctx context.Context, request string) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) GetByUser(ctx context.Context, userID string) (*entities.JobProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.JobProfile), args.Error(1)
}

func (m *mockProfiles) Upsert(ctx context.Context, profile entities.JobProfile) error {
	return m.Called(ctx, profile).Error(0)
}

const extractionResponse = "```json\n" + `{
	"skills": ["Go", "PostgreSQL", " go "],
	"role_keywords": ["backend"],
	"preferred_regions": ["europe"],
	"excluded_companies": [],
	"target_titles": ["Senior Backend Engineer"],
	"seniority": "Senior"
}` + "\n```"

func Test_SyncFromText_ShouldParseFencedResponseAndNormalizeTerms(t *testing.T) {

	assert := assert.New(t)

	ai := &mockAiClient{}
	ai.On("GenerateResponse", mock.Anything, mock.Anything).Return(extractionResponse, nil)

	profiles := &mockProfiles{}
	profiles.On("GetByUser", mock.Anything, "user-1").Return(nil, nil)
	profiles.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	sync := NewProfileSync(ai, profiles)

	profile, err := sync.SyncFromText(context.Background(), "user-1", "I build Go backends")
	assert.NoError(err)
	assert.Equal([]string{"go", "postgresql"}, profile.SkillsAsArray())
	assert.Equal([]string{"backend"}, profile.RoleKeywordsAsArray())
	assert.Equal([]string{"europe"}, profile.PreferredRegionsAsArray())
	assert.Equal("senior", profile.Seniority)
	assert.Equal("I build Go backends", profile.ContextText)
	profiles.AssertExpectations(t)
}

func Test_SyncFromText_ShouldPreserveSalaryFromExistingProfile(t *testing.T) {

	assert := assert.New(t)

	ai := &mockAiClient{}
	ai.On("GenerateResponse", mock.Anything, mock.Anything).Return(`{"skills": ["go"]}`, nil)

	existingSalary := 90000.0
	profiles := &mockProfiles{}
	profiles.On("GetByUser", mock.Anything, "user-1").
		Return(&entities.JobProfile{UserID: "user-1", SalaryMin: &existingSalary, SalaryCurrency: "USD"}, nil)
	profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(profile entities.JobProfile) bool {
		return profile.SalaryMin != nil && *profile.SalaryMin == existingSalary
	})).Return(nil)

	sync := NewProfileSync(ai, profiles)

	profile, err := sync.SyncFromText(context.Background(), "user-1", "resume text")
	assert.NoError(err)
	assert.Equal("USD", profile.SalaryCurrency)
	profiles.AssertExpectations(t)
}

func Test_SyncFromText_WhenResponseNotJSON_ShouldFail(t *testing.T) {

	ai := &mockAiClient{}
	ai.On("GenerateResponse", mock.Anything, mock.Anything).Return("sorry, I cannot do that", nil)

	sync := NewProfileSync(ai, &mockProfiles{})

	_, err := sync.SyncFromText(context.Background(), "user-1", "resume text")
	assert.Error(t, err)
}

func Test_SyncFromText_WhenTextEmpty_ShouldFailWithoutCallingAI(t *testing.T) {

	ai := &mockAiClient{}

	sync := NewProfileSync(ai, &mockProfiles{})

	_, err := sync.SyncFromText(context.Background(), "user-1", "   ")
	assert.Error(t, err)
	ai.AssertNotCalled(t, "GenerateResponse", mock.Anything, mock.Anything)
}
