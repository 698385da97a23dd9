package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/careerpilot/backend/internal/logger"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type aiClient interface {
	GenerateResponse(ctx context.Context, request string) (string, error)
}

type profileRepository interface {
	GetByUser(ctx context.Context, userID string) (*entities.JobProfile, error)
	Upsert(ctx context.Context, profile entities.JobProfile) error
}

// ProfileSync derives a user's matching profile from free resume or
// portfolio text through the text-generation collaborator.
type ProfileSync struct {
	aiClient aiClient
	profiles profileRepository
}

func NewProfileSync(aiClient aiClient, profiles profileRepository) *ProfileSync {
	return &ProfileSync{aiClient: aiClient, profiles: profiles}
}

type profileExtraction struct {
	Skills            []string `json:"skills"`
	RoleKeywords      []string `json:"role_keywords"`
	PreferredRegions  []string `json:"preferred_regions"`
	ExcludedCompanies []string `json:"excluded_companies"`
	TargetTitles      []string `json:"target_titles"`
	Seniority         string   `json:"seniority"`
}

func (s *ProfileSync) SyncFromText(ctx context.Context, userID string, text string) (*entities.JobProfile, error) {

	if strings.TrimSpace(text) == "" {
		return nil, errors.New("profile text is empty")
	}

	response, err := s.aiClient.GenerateResponse(ctx, s.extractionRequest(text))
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("failed to generate profile extraction: %v", err)
		return nil, err
	}

	extraction, err := parseExtraction(response)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("unparseable profile extraction %q: %v", response, err)
		return nil, err
	}

	profile := entities.JobProfile{
		UserID:            userID,
		Skills:            entities.JoinList(normalizeTerms(extraction.Skills)),
		RoleKeywords:      entities.JoinList(normalizeTerms(extraction.RoleKeywords)),
		PreferredRegions:  entities.JoinList(normalizeTerms(extraction.PreferredRegions)),
		ExcludedCompanies: entities.JoinList(normalizeTerms(extraction.ExcludedCompanies)),
		TargetTitles:      entities.JoinList(normalizeTerms(extraction.TargetTitles)),
		Seniority:         strings.ToLower(strings.TrimSpace(extraction.Seniority)),
		ContextText:       text,
	}

	if existing, err := s.profiles.GetByUser(ctx, userID); err == nil && existing != nil {
		profile.SalaryMin = existing.SalaryMin
		profile.SalaryCurrency = existing.SalaryCurrency
	}

	if err = s.profiles.Upsert(ctx, profile); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to upsert profile for user %v: %v", userID, err)
		return nil, err
	}

	return &profile, nil
}

func (s *ProfileSync) extractionRequest(text string) string {

	return "Extract a job-matching profile from the following resume or portfolio text. " +
		"Respond with a single JSON object and nothing else, using these keys: " +
		`"skills" (lowercase technology and competency names), ` +
		`"role_keywords" (words that should appear in matching job titles), ` +
		`"preferred_regions" (one of: worldwide, usa, canada, americas, latam, emea, europe, uk, apac), ` +
		`"excluded_companies", "target_titles" (arrays of strings), ` +
		`and "seniority" (one of: intern, junior, mid, senior, lead, staff, principal). ` +
		"Use empty arrays for anything the text does not state. Text:\n" + text
}

// parseExtraction tolerates responses wrapped in markdown code fences.
func parseExtraction(response string) (*profileExtraction, error) {

	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var extraction profileExtraction
	if err := json.Unmarshal([]byte(cleaned), &extraction); err != nil {
		return nil, err
	}
	return &extraction, nil
}

func normalizeTerms(terms []string) []string {
	normalized := lo.FilterMap(terms, func(term string, _ int) (string, bool) {
		trimmed := strings.ToLower(strings.TrimSpace(term))
		return trimmed, trimmed != ""
	})
	return lo.Uniq(normalized)
}
