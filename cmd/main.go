package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/careerpilot/backend/internal/clients/gemini"
	"github.com/careerpilot/backend/internal/config"
	"github.com/careerpilot/backend/internal/ingest"
	"github.com/careerpilot/backend/internal/logger"
	"github.com/careerpilot/backend/internal/metrics"
	"github.com/careerpilot/backend/internal/repositories"
	"github.com/careerpilot/backend/internal/server"
	"github.com/careerpilot/backend/internal/services"
	"github.com/careerpilot/backend/internal/sources"
	log "github.com/sirupsen/logrus"
)

func newAIClient(ctx context.Context, cfg config.AIConfig) (*gemini.Client, error) {

	model := gemini.Model15Flash
	if cfg.Model != "" {
		model = gemini.Model(cfg.Model)
	}

	aiClient, err := gemini.NewClient(ctx, cfg.Key, model)
	if err != nil {
		return nil, err
	}
	aiClient.SetMinuteRateLimit(cfg.MaxRequestsPerMinute)
	aiClient.SetDayRateLimit(cfg.MaxRequestsPerDay)
	return aiClient, nil
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.Register()

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	if err = dbContext.Migrate(); err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	sourcesRepo := repositories.NewSourcesRepository(dbContext.DB)
	jobsRepo := repositories.NewJobsRepository(dbContext.DB)
	profilesRepo := repositories.NewProfilesRepository(dbContext.DB)

	bus := EventBus.New()

	workers := sources.NewFactory(cfg.Pipeline.MaxPages)
	workers.SetRateLimit(cfg.Pipeline.MaxRequestsPerSecond)

	pipeline, err := ingest.NewPipeline(bus, sourcesRepo, jobsRepo, workers, cfg.Pipeline)
	if err != nil {
		log.Fatalf("can't create ingest pipeline: %v", err)
	}

	aiClient, err := newAIClient(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("can't create AI client: %v", err)
	}

	profileSync := services.NewProfileSync(aiClient, profilesRepo)

	matches, err := services.NewMatches(bus, jobsRepo, profilesRepo)
	if err != nil {
		log.Fatalf("can't create matches service: %v", err)
	}

	scheduler, err := services.NewSyncScheduler(pipeline, jobsRepo, cfg.Pipeline)
	if err != nil {
		log.Fatalf("can't create sync scheduler: %v", err)
	}
	defer scheduler.Stop()

	router := server.NewRouter(cfg.Server, server.NewAuth(cfg.Auth), server.Handlers{
		Sync:    server.NewSyncHandler(pipeline, sourcesRepo, jobsRepo),
		Jobs:    server.NewJobsHandler(jobsRepo),
		Matches: server.NewMatchesHandler(matches),
		Sources: server.NewSourcesHandler(sourcesRepo, workers, bus),
		Profile: server.NewProfileHandler(profilesRepo, profileSync, matches),
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()
	log.Infof("listening on port %d", cfg.Server.Port)

	<-ctx.Done()

	log.Info("Shutting down services...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http server shutdown: %v", err)
	}
	log.Info("Services stopped.")
}
