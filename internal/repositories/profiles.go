package repositories

import (
	"context"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Profiles struct {
	db *gorm.DB
}

func NewProfilesRepository(db *gorm.DB) *Profiles {
	return &Profiles{db: db}
}

// GetByUser returns nil without error when the user has no profile yet;
// the matcher treats that as an empty preference set.
func (repo *Profiles) GetByUser(ctx context.Context, userID string) (*entities.JobProfile, error) {

	var profile entities.JobProfile
	err := repo.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (repo *Profiles) Upsert(ctx context.Context, profile entities.JobProfile) error {

	existing, err := repo.GetByUser(ctx, profile.UserID)
	if err != nil {
		return err
	}

	if existing == nil {
		return repo.db.WithContext(ctx).Create(&profile).Error
	}

	profile.ID = existing.ID
	profile.CreatedAt = existing.CreatedAt
	return repo.db.WithContext(ctx).Save(&profile).Error
}
