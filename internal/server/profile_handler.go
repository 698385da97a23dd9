package server

import (
	"net/http"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/careerpilot/backend/internal/repositories"
	"github.com/careerpilot/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profiles *repositories.Profiles
	sync     *services.ProfileSync
	matches  *services.Matches
}

func NewProfileHandler(profiles *repositories.Profiles, sync *services.ProfileSync,
	matches *services.Matches) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, sync: sync, matches: matches}
}

type profileView struct {
	Skills            []string `json:"skills"`
	RoleKeywords      []string `json:"role_keywords"`
	PreferredRegions  []string `json:"preferred_regions"`
	ExcludedCompanies []string `json:"excluded_companies"`
	TargetTitles      []string `json:"target_titles"`
	Seniority         string   `json:"seniority,omitempty"`
	SalaryMin         *float64 `json:"salary_min,omitempty"`
	SalaryCurrency    string   `json:"salary_currency,omitempty"`
	ContextText       string   `json:"context_text,omitempty"`
}

func toProfileView(profile entities.JobProfile) profileView {
	return profileView{
		Skills:            profile.SkillsAsArray(),
		RoleKeywords:      profile.RoleKeywordsAsArray(),
		PreferredRegions:  profile.PreferredRegionsAsArray(),
		ExcludedCompanies: profile.ExcludedCompaniesAsArray(),
		TargetTitles:      profile.TargetTitlesAsArray(),
		Seniority:         profile.Seniority,
		SalaryMin:         profile.SalaryMin,
		SalaryCurrency:    profile.SalaryCurrency,
		ContextText:       profile.ContextText,
	}
}

func (h *ProfileHandler) Get(c *gin.Context) {

	profile, err := h.profiles.GetByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if profile == nil {
		profile = &entities.JobProfile{}
	}

	c.JSON(http.StatusOK, toProfileView(*profile))
}

type putProfileRequest struct {
	Skills            []string `json:"skills"`
	RoleKeywords      []string `json:"role_keywords"`
	PreferredRegions  []string `json:"preferred_regions"`
	ExcludedCompanies []string `json:"excluded_companies"`
	TargetTitles      []string `json:"target_titles"`
	Seniority         string   `json:"seniority"`
	SalaryMin         *float64 `json:"salary_min"`
	SalaryCurrency    string   `json:"salary_currency"`
	ContextText       string   `json:"context_text"`
}

func (h *ProfileHandler) Put(c *gin.Context) {

	var request putProfileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	userID := currentUserID(c)
	profile := entities.JobProfile{
		UserID:            userID,
		Skills:            entities.JoinList(request.Skills),
		RoleKeywords:      entities.JoinList(request.RoleKeywords),
		PreferredRegions:  entities.JoinList(request.PreferredRegions),
		ExcludedCompanies: entities.JoinList(request.ExcludedCompanies),
		TargetTitles:      entities.JoinList(request.TargetTitles),
		Seniority:         request.Seniority,
		SalaryMin:         request.SalaryMin,
		SalaryCurrency:    request.SalaryCurrency,
		ContextText:       request.ContextText,
	}
	if err := h.profiles.Upsert(c.Request.Context(), profile); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	h.matches.InvalidateUser(userID)
	c.JSON(http.StatusOK, toProfileView(profile))
}

type syncProfileRequest struct {
	Text string `json:"text" binding:"required"`
}

// SyncFromText asks the model to distill free-form career notes or a
// resume into structured matching preferences.
func (h *ProfileHandler) SyncFromText(c *gin.Context) {

	var request syncProfileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	userID := currentUserID(c)
	profile, err := h.sync.SyncFromText(c.Request.Context(), userID, request.Text)
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}

	h.matches.InvalidateUser(userID)
	c.JSON(http.StatusOK, toProfileView(*profile))
}
