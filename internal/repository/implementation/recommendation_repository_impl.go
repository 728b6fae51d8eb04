package implementation

import (
	"context"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/internal/mapper"
	"sponsor-advisor-be/internal/model"
	"sponsor-advisor-be/internal/repository/contract"
	"sponsor-advisor-be/internal/repository/specification"

	"gorm.io/gorm"
)

type RecommendationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AdvisorMapper
}

func NewRecommendationRepository(db *gorm.DB) contract.RecommendationRepository {
	return &RecommendationRepositoryImpl{
		db:     db,
		mapper: mapper.NewAdvisorMapper(),
	}
}

func (r *RecommendationRepositoryImpl) CreateBulk(ctx context.Context, records []*entity.RecommendationRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]*model.Recommendation, 0, len(records))
	for _, rec := range records {
		m, err := r.mapper.RecommendationToModel(rec)
		if err != nil {
			return err
		}
		models = append(models, m)
	}
	return r.db.WithContext(ctx).Omit("Message").Create(&models).Error
}

func (r *RecommendationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecommendationRecord, error) {
	var models []*model.Recommendation
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.RecommendationRecord, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.RecommendationToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}
