package repositories

import (
	"fmt"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {

	if err := c.DB.AutoMigrate(entities.JobSource{}); err != nil {
		return fmt.Errorf("failed to migrate JobSource entity: %w", err)
	}

	if err := c.DB.AutoMigrate(entities.Job{}); err != nil {
		return fmt.Errorf("failed to migrate Job entity: %w", err)
	}

	if err := c.DB.AutoMigrate(entities.JobProfile{}); err != nil {
		return fmt.Errorf("failed to migrate JobProfile entity: %w", err)
	}

	var sourcesCount int64
	if err := c.DB.Model(entities.JobSource{}).Where("is_built_in = ?", true).
		Count(&sourcesCount).Error; err != nil {
		return fmt.Errorf("failed to count built-in sources: %w", err)
	}

	if sourcesCount == 0 {
		if err := c.seedBuiltInSources(); err != nil {
			return fmt.Errorf("failed to seed built-in sources: %w", err)
		}
	}

	return nil
}

// seedBuiltInSources installs the sources the platform ships with. They can
// be disabled through the registry but never deleted.
func (c *DbContext) seedBuiltInSources() error {

	builtIn := []struct {
		key      string
		name     string
		typ      entities.SourceType
		settings entities.SourceSettings
	}{
		{
			key:  "remoteok",
			name: "RemoteOK",
			typ:  entities.SourceAPI,
			settings: entities.SourceSettings{
				URL:      "https://remoteok.com/api",
				MaxPages: 1,
			},
		},
		{
			key:  "remotive",
			name: "Remotive",
			typ:  entities.SourceAPI,
			settings: entities.SourceSettings{
				URL:      "https://remotive.com/api/remote-jobs",
				ItemsKey: "jobs",
				MaxPages: 1,
			},
		},
		{
			key:  "weworkremotely",
			name: "We Work Remotely",
			typ:  entities.SourceRSS,
			settings: entities.SourceSettings{
				URL: "https://weworkremotely.com/categories/remote-programming-jobs.rss",
			},
		},
	}

	var sources []entities.JobSource
	for _, s := range builtIn {
		source := entities.JobSource{
			SourceKey:      s.key,
			Name:           s.name,
			Type:           s.typ,
			IsBuiltIn:      true,
			Enabled:        true,
			LastSyncStatus: entities.SyncPending,
		}
		if err := source.SetSettings(s.settings); err != nil {
			return err
		}
		sources = append(sources, source)
	}

	return c.DB.Create(sources).Error
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
