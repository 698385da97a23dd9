package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Jobs struct {
	db *gorm.DB
}

func NewJobsRepository(db *gorm.DB) *Jobs {
	return &Jobs{db: db}
}

// Upsert inserts a job or merges it into the existing row with the same
// fingerprint. The unique constraint on fingerprint is the source of truth:
// a constraint violation on insert means another writer got there first, so
// it falls back to an update instead of failing. Repeated application with
// identical input yields exactly one row with the original created_at.
func (repo *Jobs) Upsert(ctx context.Context, job *entities.Job) (created bool, err error) {

	var existing entities.Job
	err = repo.db.WithContext(ctx).First(&existing, "fingerprint = ?", job.Fingerprint).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		createErr := repo.db.WithContext(ctx).Create(job).Error
		if createErr == nil {
			return true, nil
		}
		if !isDuplicateKey(createErr) {
			return false, createErr
		}
		// concurrent insert of the same fingerprint; re-read and merge
		if err = repo.db.WithContext(ctx).First(&existing, "fingerprint = ?", job.Fingerprint).Error; err != nil {
			return false, err
		}
	} else if err != nil {
		return false, err
	}

	return false, repo.merge(ctx, existing, job)
}

func (repo *Jobs) merge(ctx context.Context, existing entities.Job, incoming *entities.Job) error {

	err := repo.db.WithContext(ctx).Model(&entities.Job{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"title":            incoming.Title,
			"normalized_title": incoming.NormalizedTitle,
			"company_name":     incoming.CompanyName,
			"locations":        incoming.Locations,
			"location_raw":     incoming.LocationRaw,
			"remote_type":      incoming.RemoteType,
			"remote_region":    incoming.RemoteRegion,
			"employment_type":  incoming.EmploymentType,
			"seniority":        incoming.Seniority,
			"salary_min":       incoming.SalaryMin,
			"salary_max":       incoming.SalaryMax,
			"salary_currency":  incoming.SalaryCurrency,
			"posted_at":        incoming.PostedAt,
			"description":      incoming.Description,
			"apply_url":        incoming.ApplyURL,
			"skills":           incoming.Skills,
			"status":           entities.JobActive,
			"last_seen_at":     incoming.LastSeenAt,
		}).Error
	if err != nil {
		return err
	}

	incoming.ID = existing.ID
	incoming.CreatedAt = existing.CreatedAt
	incoming.SourceKey = existing.SourceKey
	return nil
}

type JobFilter struct {
	Query       string
	RemoteType  string
	Region      string
	Seniority   string
	SourceKey   string
	PostedSince *time.Time
	Limit       int
	Offset      int
}

func (filter JobFilter) EffectiveLimit() int {
	if filter.Limit <= 0 || filter.Limit > 100 {
		return 20
	}
	return filter.Limit
}

func (repo *Jobs) List(ctx context.Context, filter JobFilter) ([]entities.Job, error) {

	query := repo.db.WithContext(ctx).Model(&entities.Job{}).
		Where("status = ?", entities.JobActive)

	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(company_name) LIKE ? OR LOWER(skills) LIKE ?",
			pattern, pattern, pattern)
	}
	if filter.RemoteType != "" {
		query = query.Where("remote_type = ?", filter.RemoteType)
	}
	if filter.Region != "" {
		query = query.Where("LOWER(remote_region) LIKE ?", "%"+strings.ToLower(filter.Region)+"%")
	}
	if filter.Seniority != "" {
		query = query.Where("seniority = ?", filter.Seniority)
	}
	if filter.SourceKey != "" {
		query = query.Where("source_key = ?", filter.SourceKey)
	}
	if filter.PostedSince != nil {
		query = query.Where("posted_at >= ?", *filter.PostedSince)
	}

	var jobs []entities.Job
	err := query.Order("posted_at DESC").
		Limit(filter.EffectiveLimit()).
		Offset(filter.Offset).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetActive returns active jobs for ranking, most recent first. The cap
// bounds how many rows one match request will score.
func (repo *Jobs) GetActive(ctx context.Context, cap int) ([]entities.Job, error) {

	var jobs []entities.Job
	err := repo.db.WithContext(ctx).
		Where("status = ?", entities.JobActive).
		Order("posted_at DESC").
		Limit(cap).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (repo *Jobs) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entities.Job{}).
		Where("status = ?", entities.JobActive).
		Count(&count).Error
	return count, err
}

type SourceCount struct {
	SourceKey string
	Count     int64
}

func (repo *Jobs) CountBySource(ctx context.Context) ([]SourceCount, error) {

	var counts []SourceCount
	err := repo.db.WithContext(ctx).Model(&entities.Job{}).
		Select("source_key, COUNT(*) as count").
		Where("status = ?", entities.JobActive).
		Group("source_key").
		Find(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// MarkStale flags active jobs not seen since the cutoff. Staleness is a
// cross-run policy, never decided inside a single sync.
func (repo *Jobs) MarkStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).Model(&entities.Job{}).
		Where("status = ? AND last_seen_at < ?", entities.JobActive, cutoff).
		Update("status", entities.JobStale)
	return res.RowsAffected, res.Error
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
