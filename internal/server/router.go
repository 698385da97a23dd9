package server

import (
	"time"

	"github.com/careerpilot/backend/internal/config"
	"github.com/careerpilot/backend/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Sync    *SyncHandler
	Jobs    *JobsHandler
	Matches *MatchesHandler
	Sources *SourcesHandler
	Profile *ProfileHandler
}

func NewRouter(cfg config.ServerConfig, auth *Auth, handlers Handlers) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CorsOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CorsOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Sync-Secret")
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	api.GET("/health", handlers.Sync.Health)
	api.GET("/jobs", handlers.Jobs.List)

	identified := api.Group("")
	identified.Use(auth.RequireUser())
	identified.GET("/matches", handlers.Matches.List)
	identified.GET("/profile", handlers.Profile.Get)
	identified.PUT("/profile", handlers.Profile.Put)
	identified.POST("/profile/sync", handlers.Profile.SyncFromText)

	admin := api.Group("")
	admin.Use(auth.RequireAdmin())
	admin.POST("/sync", handlers.Sync.Trigger)
	admin.GET("/sources", handlers.Sources.List)
	admin.POST("/sources", handlers.Sources.Add)
	admin.GET("/sources/:key", handlers.Sources.Get)
	admin.PATCH("/sources/:key", handlers.Sources.Update)
	admin.DELETE("/sources/:key", handlers.Sources.Delete)
	admin.POST("/sources/:key/test", handlers.Sources.Test)

	return router
}
