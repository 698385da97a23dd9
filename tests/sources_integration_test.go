package tests

import (
	"context"
	"testing"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/careerpilot/backend/internal/repositories"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Sources_AddCustom_DerivesKeyAndRejectsDuplicates(t *testing.T) {

	defer clearDb()
	assert := assert.New(t)

	registry := repositories.NewSourcesRepository(dbCtx.DB)

	source, err := registry.AddCustom(context.Background(), repositories.AddSourceParams{
		Name: "My Remote Board",
		Type: string(entities.SourceRSS),
		Settings: entities.SourceSettings{
			URL: "https://board.example/feed.rss",
		},
	})
	assert.NoError(err)
	assert.Equal("my-remote-board", source.SourceKey)
	assert.False(source.IsBuiltIn)

	_, err = registry.AddCustom(context.Background(), repositories.AddSourceParams{
		Name: "My Remote Board",
		Type: string(entities.SourceRSS),
		Settings: entities.SourceSettings{
			URL: "https://board.example/feed.rss",
		},
	})
	assert.True(errors.Is(err, repositories.ErrValidation))
}

func Test_Sources_AddCustom_WhenScraperHasNoJobSelector_Rejects(t *testing.T) {

	defer clearDb()

	registry := repositories.NewSourcesRepository(dbCtx.DB)

	_, err := registry.AddCustom(context.Background(), repositories.AddSourceParams{
		Name: "Scraped Board",
		Type: string(entities.SourceScraper),
		Settings: entities.SourceSettings{
			URL: "https://board.example/jobs",
		},
	})
	assert.True(t, errors.Is(err, repositories.ErrValidation))
}

func Test_Sources_Update_AppliesMergePatch(t *testing.T) {

	defer clearDb()
	assert := assert.New(t)

	registry := repositories.NewSourcesRepository(dbCtx.DB)

	source, err := registry.AddCustom(context.Background(), repositories.AddSourceParams{
		Name:        "My Remote Board",
		Type:        string(entities.SourceRSS),
		Description: "original description",
		Settings: entities.SourceSettings{
			URL: "https://board.example/feed.rss",
		},
	})
	assert.NoError(err)

	enabled := false
	err = registry.Update(context.Background(), source.SourceKey, repositories.UpdateSourceParams{
		Enabled: &enabled,
	})
	assert.NoError(err)

	updated, err := registry.GetByKey(context.Background(), source.SourceKey)
	assert.NoError(err)
	assert.False(updated.Enabled)
	assert.Equal("original description", updated.Description)

	settings, err := updated.ParsedSettings()
	assert.NoError(err)
	assert.Equal("https://board.example/feed.rss", settings.URL)
}

func Test_Sources_Delete_RefusesBuiltInSources(t *testing.T) {

	assert := assert.New(t)

	registry := repositories.NewSourcesRepository(dbCtx.DB)

	err := registry.Delete(context.Background(), "remoteok")
	assert.True(errors.Is(err, repositories.ErrBuiltInSource))

	_, err = registry.GetByKey(context.Background(), "remoteok")
	assert.NoError(err)
}

func Test_Sources_Delete_WhenSourceUnknown_ReturnsNotFound(t *testing.T) {

	registry := repositories.NewSourcesRepository(dbCtx.DB)

	err := registry.Delete(context.Background(), "no-such-source")
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}
