package implementation

import (
	"context"
	"errors"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/internal/mapper"
	"sponsor-advisor-be/internal/model"
	"sponsor-advisor-be/internal/repository/contract"
	"sponsor-advisor-be/internal/repository/specification"

	"gorm.io/gorm"
)

type BusinessProfileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AdvisorMapper
}

func NewBusinessProfileRepository(db *gorm.DB) contract.BusinessProfileRepository {
	return &BusinessProfileRepositoryImpl{
		db:     db,
		mapper: mapper.NewAdvisorMapper(),
	}
}

func (r *BusinessProfileRepositoryImpl) Create(ctx context.Context, profile *entity.BusinessProfile) error {
	m := r.mapper.BusinessProfileToModel(profile)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*profile = *r.mapper.BusinessProfileToEntity(m)
	return nil
}

func (r *BusinessProfileRepositoryImpl) UpdateCoordinates(ctx context.Context, profile *entity.BusinessProfile) error {
	return r.db.WithContext(ctx).Model(&model.BusinessProfile{}).
		Where("id = ?", profile.Id).
		Updates(map[string]interface{}{
			"latitude":    profile.Latitude,
			"longitude":   profile.Longitude,
			"geocoded_at": profile.GeocodedAt,
		}).Error
}

func (r *BusinessProfileRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BusinessProfile, error) {
	var m model.BusinessProfile
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.BusinessProfileToEntity(&m), nil
}
