package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/careerpilot/backend/internal/config"
	"github.com/careerpilot/backend/internal/entities"
	"github.com/careerpilot/backend/internal/events"
	"github.com/careerpilot/backend/internal/logger"
	"github.com/careerpilot/backend/internal/metrics"
	"github.com/careerpilot/backend/internal/sources"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type sourceRegistry interface {
	GetEnabled(ctx context.Context) ([]entities.JobSource, error)
	RecordSyncOutcome(ctx context.Context, sourceKey string, status entities.SyncStatus,
		jobsCount int, syncErr string) error
}

type jobStore interface {
	Upsert(ctx context.Context, job *entities.Job) (bool, error)
}

type workerFactory interface {
	WorkerFor(source entities.JobSource) (sources.Worker, error)
}

// Pipeline drives one end-to-end sync across all enabled sources. A failing
// source is recorded and skipped; only an unreachable store fails the run.
type Pipeline struct {
	bus           EventBus.Bus
	registry      sourceRegistry
	jobs          jobStore
	workers       workerFactory
	normalizer    *Normalizer
	sourceTimeout time.Duration
	runDeadline   time.Duration
	fetchContexts sync.Map
}

// Result aggregates one run. Per-source errors are data, not failures;
// StoreUnavailable marks the one error the caller cannot retry around.
type Result struct {
	Success          bool     `json:"success"`
	StoreUnavailable bool     `json:"-"`
	RunID            string   `json:"run_id"`
	JobsFetched      int      `json:"jobs_fetched"`
	JobsNormalized   int      `json:"jobs_normalized"`
	JobsCreated      int      `json:"jobs_created"`
	JobsDeduplicated int      `json:"jobs_deduplicated"`
	DurationMs       int64    `json:"duration_ms"`
	Errors           []string `json:"errors"`
}

func NewPipeline(bus EventBus.Bus, registry sourceRegistry, jobs jobStore,
	workers workerFactory, cfg config.PipelineConfig) (*Pipeline, error) {

	p := &Pipeline{
		bus:           bus,
		registry:      registry,
		jobs:          jobs,
		workers:       workers,
		normalizer:    NewNormalizer(),
		sourceTimeout: cfg.SourceTimeout,
		runDeadline:   cfg.RunDeadline,
	}

	if err := bus.Subscribe(events.SourceDeletedTopic, p.onSourceDeletedEvent); err != nil {
		return nil, err
	}

	return p, nil
}

// sourceOutcome accumulates one source's results in isolation; outcomes are
// merged only after every source finished, so concurrent sources never race
// on shared counters.
type sourceOutcome struct {
	sourceKey  string
	fetched    int
	normalized int
	created    int
	updated    int
	errors     []string
	failed     bool
}

func (p *Pipeline) Run(ctx context.Context) Result {

	runID := uuid.NewString()
	runLog := log.WithField(logger.RunIDField, runID)
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, p.runDeadline)
	defer cancel()

	enabled, err := p.registry.GetEnabled(runCtx)
	if err != nil {
		runLog.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to load enabled sources: %v", err)
		return Result{
			Success:          false,
			StoreUnavailable: true,
			RunID:            runID,
			DurationMs:       time.Since(start).Milliseconds(),
			Errors:           []string{fmt.Sprintf("store unavailable: %v", err)},
		}
	}

	runLog.Infof("sync started across %d sources", len(enabled))

	outcomes := make([]*sourceOutcome, len(enabled))
	var wg sync.WaitGroup
	for i, source := range enabled {

		if deadline, ok := runCtx.Deadline(); ok && time.Until(deadline) < p.sourceTimeout/2 {
			outcomes[i] = &sourceOutcome{
				sourceKey: source.SourceKey,
				failed:    true,
				errors:    []string{"skipped: run deadline imminent"},
			}
			p.recordOutcome(source.SourceKey, entities.SyncFailed, 0, "skipped: run deadline imminent", runLog)
			continue
		}

		wg.Add(1)
		go func(i int, source entities.JobSource) {
			defer wg.Done()
			outcomes[i] = p.syncSource(runCtx, source, runLog)
		}(i, source)
	}
	wg.Wait()

	result := Result{Success: true, RunID: runID, Errors: []string{}}
	failedSources := 0
	for _, outcome := range outcomes {
		result.JobsFetched += outcome.fetched
		result.JobsNormalized += outcome.normalized
		result.JobsCreated += outcome.created
		result.JobsDeduplicated += outcome.updated
		for _, msg := range outcome.errors {
			result.Errors = append(result.Errors, outcome.sourceKey+": "+msg)
		}
		if outcome.failed {
			failedSources++
		}
	}

	if len(enabled) > 0 && failedSources == len(enabled) {
		result.Success = false
	}

	result.DurationMs = time.Since(start).Milliseconds()
	metrics.SyncDuration.Observe(time.Since(start).Seconds())

	p.bus.Publish(events.SyncCompletedTopic, events.SyncCompleted{
		RunID:       runID,
		JobsCreated: result.JobsCreated,
		JobsUpdated: result.JobsDeduplicated,
		Errors:      result.Errors,
	})

	runLog.Infof("sync finished in %v: %d fetched, %d created, %d deduplicated, %d source errors",
		time.Since(start), result.JobsFetched, result.JobsCreated, result.JobsDeduplicated, len(result.Errors))

	return result
}

func (p *Pipeline) syncSource(ctx context.Context, source entities.JobSource, runLog *log.Entry) *sourceOutcome {

	outcome := &sourceOutcome{sourceKey: source.SourceKey}

	worker, err := p.workers.WorkerFor(source)
	if err != nil {
		outcome.failed = true
		outcome.errors = append(outcome.errors, err.Error())
		p.recordOutcome(source.SourceKey, entities.SyncFailed, 0, err.Error(), runLog)
		return outcome
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.sourceTimeout)
	p.fetchContexts.Store(source.SourceKey, cancel)
	defer func() {
		cancel()
		p.fetchContexts.Delete(source.SourceKey)
	}()

	fetchStart := time.Now()
	fetched := worker.Ingest(fetchCtx)
	metrics.SyncStepDuration.WithLabelValues("fetch").Observe(time.Since(fetchStart).Seconds())

	outcome.fetched = fetched.JobsFetched
	outcome.errors = append(outcome.errors, fetched.Errors...)

	if !fetched.Success {
		outcome.failed = true
		metrics.SourceErrorsCounter.WithLabelValues(source.SourceKey).Inc()
		runLog.WithField(logger.ErrorTypeField, logger.ErrorTypeSource).
			Errorf("source %v failed: %v", source.SourceKey, fetched.Errors)
		p.recordOutcome(source.SourceKey, entities.SyncFailed, 0, firstError(fetched.Errors), runLog)
		return outcome
	}

	now := time.Now().UTC()
	upsertStart := time.Now()
	for _, posting := range fetched.Postings {

		job := p.normalizer.Normalize(posting, now)
		if job == nil {
			continue // expected drop: posting lacks title or company
		}
		outcome.normalized++

		created, err := p.jobs.Upsert(ctx, job)
		if err != nil {
			outcome.errors = append(outcome.errors, fmt.Sprintf("upsert %q: %v", job.Title, err))
			runLog.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to upsert job %q from %v: %v", job.Title, source.SourceKey, err)
			continue
		}
		if created {
			outcome.created++
			metrics.JobsCreatedCounter.Inc()
		} else {
			outcome.updated++
			metrics.JobsUpdatedCounter.Inc()
		}
	}
	metrics.SyncStepDuration.WithLabelValues("upsert").Observe(time.Since(upsertStart).Seconds())

	p.recordOutcome(source.SourceKey, entities.SyncSuccess, outcome.fetched, firstError(outcome.errors), runLog)
	return outcome
}

func (p *Pipeline) recordOutcome(sourceKey string, status entities.SyncStatus,
	jobsCount int, syncErr string, runLog *log.Entry) {

	err := p.registry.RecordSyncOutcome(context.Background(), sourceKey, status, jobsCount, syncErr)
	if err != nil {
		runLog.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to record sync outcome for %v: %v", sourceKey, err)
	}
}

func (p *Pipeline) onSourceDeletedEvent(event events.SourceDeleted) {
	if cancel, ok := p.fetchContexts.Load(event.SourceKey); ok {
		cancel.(context.CancelFunc)()
		p.fetchContexts.Delete(event.SourceKey)
	}
}

func firstError(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	return errs[0]
}
