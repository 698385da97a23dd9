package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/careerpilot/backend/internal/entities"
	"github.com/careerpilot/backend/internal/ingest"
	"github.com/careerpilot/backend/internal/repositories"
	"github.com/careerpilot/backend/internal/sources"
	"github.com/stretchr/testify/assert"
)

const feedURL = "https://feed.example/jobs.rss"

func feedWithDescription(description string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Remote Jobs</title>
<link>https://feed.example</link>
<item>
  <title>Acme: Senior Go Developer (Remote, Europe)</title>
  <link>https://feed.example/jobs/1</link>
  <description>%s</description>
  <pubDate>Mon, 03 Mar 2025 10:00:00 +0000</pubDate>
  <category>golang</category>
</item>
</channel></rss>`, description)
}

func clearDb() {
	dbCtx.DB.Exec("DELETE FROM jobs WHERE TRUE")
	dbCtx.DB.Exec("DELETE FROM job_sources WHERE is_built_in = false")
}

func addFeedSource(t *testing.T, registry *repositories.Sources) *entities.JobSource {
	source, err := registry.AddCustom(context.Background(), repositories.AddSourceParams{
		Name: "Test Feed",
		Type: string(entities.SourceRSS),
		Settings: entities.SourceSettings{
			URL: feedURL,
		},
	})
	assert.NoError(t, err)
	return source
}

func newTestPipeline(t *testing.T, client sources.HTTPClient) (*ingest.Pipeline, *repositories.Sources, *repositories.Jobs) {

	registry := repositories.NewSourcesRepository(dbCtx.DB)
	jobs := repositories.NewJobsRepository(dbCtx.DB)

	factory := sources.NewFactory(10)
	factory.SetHTTPClient(client)

	pipeline, err := ingest.NewPipeline(EventBus.New(), registry, jobs, factory, pipelineConfig())
	assert.NoError(t, err)
	return pipeline, registry, jobs
}

func Test_Pipeline_SecondRunWithSameFeed_IsIdempotent(t *testing.T) {

	defer clearDb()
	assert := assert.New(t)

	client := newStubHTTPClient()
	client.queue(feedURL, feedWithDescription("build backends"))

	pipeline, registry, jobs := newTestPipeline(t, client)
	addFeedSource(t, registry)

	first := pipeline.Run(context.Background())
	assert.True(first.Success)
	assert.Equal(1, first.JobsCreated)
	assert.Equal(0, first.JobsDeduplicated)

	second := pipeline.Run(context.Background())
	assert.True(second.Success)
	assert.Equal(0, second.JobsCreated)
	assert.Equal(1, second.JobsDeduplicated)

	count, err := jobs.CountActive(context.Background())
	assert.NoError(err)
	assert.Equal(int64(1), count)
}

func Test_Pipeline_RepostedJobKeepsIdentityAndFreshContent(t *testing.T) {

	defer clearDb()
	assert := assert.New(t)

	client := newStubHTTPClient()
	client.queue(feedURL,
		feedWithDescription("day one description"),
		feedWithDescription("day two description"))

	pipeline, registry, jobs := newTestPipeline(t, client)
	addFeedSource(t, registry)

	first := pipeline.Run(context.Background())
	assert.True(first.Success)

	var original entities.Job
	assert.NoError(dbCtx.DB.First(&original).Error)

	second := pipeline.Run(context.Background())
	assert.True(second.Success)
	assert.Equal(1, second.JobsDeduplicated)

	listed, err := jobs.List(context.Background(), repositories.JobFilter{})
	assert.NoError(err)
	assert.Len(listed, 1)
	assert.Equal(original.Fingerprint, listed[0].Fingerprint)
	assert.Equal("day two description", listed[0].Description)
	assert.Equal(original.CreatedAt.UTC(), listed[0].CreatedAt.UTC())
}

func Test_Pipeline_RecordsSyncOutcomePerSource(t *testing.T) {

	defer clearDb()
	assert := assert.New(t)

	client := newStubHTTPClient()
	client.queue(feedURL, feedWithDescription("build backends"))

	pipeline, registry, _ := newTestPipeline(t, client)
	source := addFeedSource(t, registry)

	result := pipeline.Run(context.Background())
	assert.True(result.Success)

	updated, err := registry.GetByKey(context.Background(), source.SourceKey)
	assert.NoError(err)
	assert.Equal(entities.SyncSuccess, updated.LastSyncStatus)
	assert.Equal(1, updated.LastSyncJobsCount)
	assert.NotNil(updated.LastSyncAt)
}

func Test_Pipeline_WhenFeedUnreachable_MarksSourceFailed(t *testing.T) {

	defer clearDb()
	assert := assert.New(t)

	client := newStubHTTPClient() // nothing queued, every fetch errors

	pipeline, registry, _ := newTestPipeline(t, client)
	source := addFeedSource(t, registry)

	result := pipeline.Run(context.Background())
	assert.False(result.Success)

	updated, err := registry.GetByKey(context.Background(), source.SourceKey)
	assert.NoError(err)
	assert.Equal(entities.SyncFailed, updated.LastSyncStatus)
	assert.NotEmpty(updated.LastError)
}
