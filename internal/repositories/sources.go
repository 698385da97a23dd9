package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Sources is the registry of job sources. Input validation happens here so
// workers only ever see well-formed, typed settings.
type Sources struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewSourcesRepository(db *gorm.DB) *Sources {
	return &Sources{db: db, validate: validator.New()}
}

type AddSourceParams struct {
	Name        string
	Type        string
	Description string
	Settings    entities.SourceSettings
}

// UpdateSourceParams has merge-patch semantics: nil fields stay untouched.
type UpdateSourceParams struct {
	Name        *string
	Description *string
	Enabled     *bool
	Settings    *entities.SourceSettings
}

func (repo *Sources) List(ctx context.Context) ([]entities.JobSource, error) {

	var sources []entities.JobSource
	err := repo.db.WithContext(ctx).
		Order("is_built_in DESC, name ASC").
		Find(&sources).Error
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func (repo *Sources) GetEnabled(ctx context.Context) ([]entities.JobSource, error) {

	var sources []entities.JobSource
	err := repo.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("is_built_in DESC, name ASC").
		Find(&sources).Error
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func (repo *Sources) GetByKey(ctx context.Context, sourceKey string) (*entities.JobSource, error) {

	var source entities.JobSource
	err := repo.db.WithContext(ctx).First(&source, "source_key = ?", sourceKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &source, nil
}

func (repo *Sources) AddCustom(ctx context.Context, params AddSourceParams) (*entities.JobSource, error) {

	sourceType, err := repo.validateAddParams(params)
	if err != nil {
		return nil, err
	}

	source := entities.JobSource{
		SourceKey:      deriveSourceKey(params.Name),
		Name:           params.Name,
		Description:    params.Description,
		Type:           sourceType,
		IsBuiltIn:      false,
		Enabled:        true,
		LastSyncStatus: entities.SyncPending,
	}
	if err = source.SetSettings(params.Settings); err != nil {
		return nil, err
	}

	if err = repo.db.WithContext(ctx).Create(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Wrapf(ErrValidation, "source %q already exists", source.SourceKey)
		}
		return nil, err
	}
	return &source, nil
}

func (repo *Sources) validateAddParams(params AddSourceParams) (entities.SourceType, error) {

	if params.Name == "" {
		return "", errors.Wrap(ErrValidation, "name is required")
	}

	sourceType, err := entities.ToSourceType(params.Type)
	if err != nil {
		return "", errors.Wrap(ErrValidation, err.Error())
	}

	if err = repo.validate.Struct(params.Settings); err != nil {
		return "", errors.Wrapf(ErrValidation, "invalid settings: %v", err)
	}

	if sourceType == entities.SourceScraper && params.Settings.JobSelector == "" {
		return "", errors.Wrap(ErrValidation, "scraper sources require a job_selector")
	}

	return sourceType, nil
}

func (repo *Sources) Update(ctx context.Context, sourceKey string, params UpdateSourceParams) error {

	source, err := repo.GetByKey(ctx, sourceKey)
	if err != nil {
		return err
	}

	updates := map[string]any{}
	if params.Name != nil {
		updates["name"] = *params.Name
	}
	if params.Description != nil {
		updates["description"] = *params.Description
	}
	if params.Enabled != nil {
		updates["enabled"] = *params.Enabled
	}
	if params.Settings != nil {
		if err = repo.validate.Struct(*params.Settings); err != nil {
			return errors.Wrapf(ErrValidation, "invalid settings: %v", err)
		}
		patched := *source
		if err = patched.SetSettings(*params.Settings); err != nil {
			return err
		}
		updates["settings"] = patched.Settings
	}

	if len(updates) == 0 {
		return nil
	}

	return repo.db.WithContext(ctx).Model(&entities.JobSource{}).
		Where("source_key = ?", sourceKey).
		Updates(updates).Error
}

func (repo *Sources) Delete(ctx context.Context, sourceKey string) error {

	source, err := repo.GetByKey(ctx, sourceKey)
	if err != nil {
		return err
	}

	if source.IsBuiltIn {
		return ErrBuiltInSource
	}

	return repo.db.WithContext(ctx).Delete(&entities.JobSource{}, "source_key = ?", sourceKey).Error
}

// RecordSyncOutcome is best-effort bookkeeping after a sync attempt; the
// orchestrator logs failures but never aborts a run over them.
func (repo *Sources) RecordSyncOutcome(ctx context.Context, sourceKey string,
	status entities.SyncStatus, jobsCount int, syncErr string) error {

	now := time.Now().UTC()
	return repo.db.WithContext(ctx).Model(&entities.JobSource{}).
		Where("source_key = ?", sourceKey).
		Updates(map[string]any{
			"last_sync_at":         now,
			"last_sync_status":     status,
			"last_sync_jobs_count": jobsCount,
			"last_error":           syncErr,
		}).Error
}

func deriveSourceKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, key)
	return strings.Trim(key, "-")
}
