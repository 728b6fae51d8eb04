package implementation

import (
	"context"
	"time"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/internal/mapper"
	"sponsor-advisor-be/internal/model"
	"sponsor-advisor-be/internal/repository/contract"
	"sponsor-advisor-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecommendationStatRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AdvisorMapper
}

func NewRecommendationStatRepository(db *gorm.DB) contract.RecommendationStatRepository {
	return &RecommendationStatRepositoryImpl{
		db:     db,
		mapper: mapper.NewAdvisorMapper(),
	}
}

func (r *RecommendationStatRepositoryImpl) IncrementImpressions(ctx context.Context, packageIds []uuid.UUID, servedAt time.Time) error {
	if len(packageIds) == 0 {
		return nil
	}
	rows := make([]*model.RecommendationStat, len(packageIds))
	for i, id := range packageIds {
		rows[i] = &model.RecommendationStat{PackageId: id, Impressions: 1, LastServedAt: servedAt}
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "package_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"impressions":    gorm.Expr("recommendation_stats.impressions + 1"),
			"last_served_at": gorm.Expr("GREATEST(recommendation_stats.last_served_at, EXCLUDED.last_served_at)"),
			"updated_at":     gorm.Expr("NOW()"),
		}),
	}).Create(&rows).Error
}

func (r *RecommendationStatRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecommendationStat, error) {
	var models []*model.RecommendationStat
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.RecommendationStat, len(models))
	for i, m := range models {
		entities[i] = r.mapper.RecommendationStatToEntity(m)
	}
	return entities, nil
}
