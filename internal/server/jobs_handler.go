package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/careerpilot/backend/internal/repositories"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type JobsHandler struct {
	jobs *repositories.Jobs
}

func NewJobsHandler(jobs *repositories.Jobs) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

type jobView struct {
	Fingerprint    string    `json:"fingerprint"`
	Title          string    `json:"title"`
	CompanyName    string    `json:"company_name"`
	Locations      []string  `json:"locations"`
	RemoteType     string    `json:"remote_type"`
	RemoteRegion   string    `json:"remote_region,omitempty"`
	EmploymentType string    `json:"employment_type,omitempty"`
	Seniority      string    `json:"seniority,omitempty"`
	SalaryMin      *float64  `json:"salary_min,omitempty"`
	SalaryMax      *float64  `json:"salary_max,omitempty"`
	SalaryCurrency string    `json:"salary_currency,omitempty"`
	PostedAt       time.Time `json:"posted_at"`
	Description    string    `json:"description,omitempty"`
	ApplyURL       string    `json:"apply_url"`
	Skills         []string  `json:"skills"`
	SourceKey      string    `json:"source_key"`
	Status         string    `json:"status"`
	LastSeenAt     time.Time `json:"last_seen_at"`
}

func toJobView(job entities.Job) jobView {
	return jobView{
		Fingerprint:    job.Fingerprint,
		Title:          job.Title,
		CompanyName:    job.CompanyName,
		Locations:      job.LocationsAsArray(),
		RemoteType:     string(job.RemoteType),
		RemoteRegion:   job.RemoteRegion,
		EmploymentType: job.EmploymentType,
		Seniority:      job.Seniority,
		SalaryMin:      job.SalaryMin,
		SalaryMax:      job.SalaryMax,
		SalaryCurrency: job.SalaryCurrency,
		PostedAt:       job.PostedAt,
		Description:    job.Description,
		ApplyURL:       job.ApplyURL,
		Skills:         job.SkillsAsArray(),
		SourceKey:      job.SourceKey,
		Status:         string(job.Status),
		LastSeenAt:     job.LastSeenAt,
	}
}

type jobsResponse struct {
	Jobs   []jobView `json:"jobs"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

func (h *JobsHandler) List(c *gin.Context) {

	filter := repositories.JobFilter{
		Query:      c.Query("query"),
		RemoteType: c.Query("remote_type"),
		Region:     firstQuery(c, "region_eligibility", "region"),
		Seniority:  c.Query("seniority"),
		SourceKey:  c.Query("source"),
		Limit:      intQuery(c, "limit", 0),
		Offset:     intQuery(c, "offset", 0),
	}
	if since, ok := timeQuery(c, "posted_since"); ok {
		filter.PostedSince = &since
	}

	jobs, err := h.jobs.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, jobsResponse{
		Jobs:   lo.Map(jobs, func(job entities.Job, _ int) jobView { return toJobView(job) }),
		Limit:  filter.EffectiveLimit(),
		Offset: filter.Offset,
	})
}

func firstQuery(c *gin.Context, names ...string) string {
	for _, name := range names {
		if value := c.Query(name); value != "" {
			return value
		}
	}
	return ""
}

func timeQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
