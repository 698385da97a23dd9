package server

import (
	"net/http"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/careerpilot/backend/internal/entities"
	"github.com/careerpilot/backend/internal/events"
	"github.com/careerpilot/backend/internal/repositories"
	"github.com/careerpilot/backend/internal/sources"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type SourcesHandler struct {
	sources *repositories.Sources
	workers *sources.Factory
	bus     EventBus.Bus
}

func NewSourcesHandler(registry *repositories.Sources, workers *sources.Factory,
	bus EventBus.Bus) *SourcesHandler {
	return &SourcesHandler{sources: registry, workers: workers, bus: bus}
}

type sourceView struct {
	SourceKey     string                  `json:"source_key"`
	Name          string                  `json:"name"`
	Description   string                  `json:"description,omitempty"`
	Type          string                  `json:"type"`
	IsBuiltIn     bool                    `json:"is_built_in"`
	Enabled       bool                    `json:"enabled"`
	Settings      entities.SourceSettings `json:"settings"`
	LastSyncAt    *time.Time              `json:"last_sync_at"`
	LastStatus    string                  `json:"last_sync_status"`
	LastJobsCount int                     `json:"last_sync_jobs_count"`
	LastError     string                  `json:"last_error,omitempty"`
}

func toSourceView(source entities.JobSource) sourceView {
	settings, err := source.ParsedSettings()
	if err != nil {
		settings = entities.SourceSettings{}
	}
	return sourceView{
		SourceKey:     source.SourceKey,
		Name:          source.Name,
		Description:   source.Description,
		Type:          string(source.Type),
		IsBuiltIn:     source.IsBuiltIn,
		Enabled:       source.Enabled,
		Settings:      settings,
		LastSyncAt:    source.LastSyncAt,
		LastStatus:    string(source.LastSyncStatus),
		LastJobsCount: source.LastSyncJobsCount,
		LastError:     source.LastError,
	}
}

func (h *SourcesHandler) List(c *gin.Context) {

	all, err := h.sources.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": lo.Map(all, func(source entities.JobSource, _ int) sourceView {
			return toSourceView(source)
		}),
	})
}

func (h *SourcesHandler) Get(c *gin.Context) {

	source, err := h.sources.GetByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondRepositoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSourceView(*source))
}

type addSourceRequest struct {
	Name        string                  `json:"name" binding:"required"`
	Type        string                  `json:"type" binding:"required"`
	Description string                  `json:"description"`
	Settings    entities.SourceSettings `json:"settings"`
}

func (h *SourcesHandler) Add(c *gin.Context) {

	var request addSourceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	source, err := h.sources.AddCustom(c.Request.Context(), repositories.AddSourceParams{
		Name:        request.Name,
		Type:        request.Type,
		Description: request.Description,
		Settings:    request.Settings,
	})
	if err != nil {
		respondRepositoryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSourceView(*source))
}

type updateSourceRequest struct {
	Name        *string                  `json:"name"`
	Description *string                  `json:"description"`
	Enabled     *bool                    `json:"enabled"`
	Settings    *entities.SourceSettings `json:"settings"`
}

func (h *SourcesHandler) Update(c *gin.Context) {

	var request updateSourceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	sourceKey := c.Param("key")
	err := h.sources.Update(c.Request.Context(), sourceKey, repositories.UpdateSourceParams{
		Name:        request.Name,
		Description: request.Description,
		Enabled:     request.Enabled,
		Settings:    request.Settings,
	})
	if err != nil {
		respondRepositoryError(c, err)
		return
	}

	source, err := h.sources.GetByKey(c.Request.Context(), sourceKey)
	if err != nil {
		respondRepositoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSourceView(*source))
}

func (h *SourcesHandler) Delete(c *gin.Context) {

	sourceKey := c.Param("key")
	if err := h.sources.Delete(c.Request.Context(), sourceKey); err != nil {
		respondRepositoryError(c, err)
		return
	}

	h.bus.Publish(events.SourceDeletedTopic, events.SourceDeleted{SourceKey: sourceKey})
	c.Status(http.StatusNoContent)
}

type testSourceResponse struct {
	Success     bool             `json:"success"`
	JobsFetched int              `json:"jobs_fetched"`
	Errors      []string         `json:"errors"`
	Sample      []map[string]any `json:"sample"`
}

// Test runs the source's worker once without touching the job store,
// so operators can verify settings before enabling a source.
func (h *SourcesHandler) Test(c *gin.Context) {

	source, err := h.sources.GetByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondRepositoryError(c, err)
		return
	}

	worker, err := h.workers.WorkerFor(*source)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	result := worker.Ingest(c.Request.Context())

	sample := []map[string]any{}
	for _, posting := range result.Postings {
		sample = append(sample, posting.Fields)
		if len(sample) == 3 {
			break
		}
	}

	c.JSON(http.StatusOK, testSourceResponse{
		Success:     result.Success,
		JobsFetched: result.JobsFetched,
		Errors:      result.Errors,
		Sample:      sample,
	})
}
