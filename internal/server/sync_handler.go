package server

import (
	"net/http"
	"time"

	"github.com/careerpilot/backend/internal/ingest"
	"github.com/careerpilot/backend/internal/repositories"
	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	pipeline *ingest.Pipeline
	sources  *repositories.Sources
	jobs     *repositories.Jobs
}

func NewSyncHandler(pipeline *ingest.Pipeline, sources *repositories.Sources,
	jobs *repositories.Jobs) *SyncHandler {
	return &SyncHandler{pipeline: pipeline, sources: sources, jobs: jobs}
}

type syncResponse struct {
	Success bool      `json:"success"`
	Stats   syncStats `json:"stats"`
	Errors  []string  `json:"errors"`
}

type syncStats struct {
	JobsFetched      int   `json:"jobs_fetched"`
	JobsNormalized   int   `json:"jobs_normalized"`
	JobsCreated      int   `json:"jobs_created"`
	JobsDeduplicated int   `json:"jobs_deduplicated"`
	DurationMs       int64 `json:"duration_ms"`
}

// Trigger runs the pipeline. Partial failures still answer 200 with the
// per-source errors in the body; only an unreachable store is a 500.
func (h *SyncHandler) Trigger(c *gin.Context) {

	result := h.pipeline.Run(c.Request.Context())

	response := syncResponse{
		Success: result.Success,
		Stats: syncStats{
			JobsFetched:      result.JobsFetched,
			JobsNormalized:   result.JobsNormalized,
			JobsCreated:      result.JobsCreated,
			JobsDeduplicated: result.JobsDeduplicated,
			DurationMs:       result.DurationMs,
		},
		Errors: result.Errors,
	}

	if result.StoreUnavailable {
		c.JSON(http.StatusInternalServerError, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

type healthResponse struct {
	LastSyncTime *time.Time         `json:"last_sync_time"`
	JobCount     int64              `json:"job_count"`
	BySource     []sourceHealthInfo `json:"by_source"`
}

type sourceHealthInfo struct {
	SourceKey     string     `json:"source_key"`
	Enabled       bool       `json:"enabled"`
	LastSyncAt    *time.Time `json:"last_sync_at"`
	LastStatus    string     `json:"last_status"`
	LastJobsCount int        `json:"last_jobs_count"`
	ActiveJobs    int64      `json:"active_jobs"`
}

func (h *SyncHandler) Health(c *gin.Context) {

	sources, err := h.sources.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	jobCount, err := h.jobs.CountActive(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	counts, err := h.jobs.CountBySource(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	countsByKey := map[string]int64{}
	for _, count := range counts {
		countsByKey[count.SourceKey] = count.Count
	}

	response := healthResponse{JobCount: jobCount, BySource: []sourceHealthInfo{}}
	for _, source := range sources {
		response.BySource = append(response.BySource, sourceHealthInfo{
			SourceKey:     source.SourceKey,
			Enabled:       source.Enabled,
			LastSyncAt:    source.LastSyncAt,
			LastStatus:    string(source.LastSyncStatus),
			LastJobsCount: source.LastSyncJobsCount,
			ActiveJobs:    countsByKey[source.SourceKey],
		})
		if source.LastSyncAt != nil &&
			(response.LastSyncTime == nil || source.LastSyncAt.After(*response.LastSyncTime)) {
			response.LastSyncTime = source.LastSyncAt
		}
	}

	c.JSON(http.StatusOK, response)
}
