package contract

import (
	"context"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/internal/repository/specification"
)

type RecommendationRepository interface {
	CreateBulk(ctx context.Context, records []*entity.RecommendationRecord) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecommendationRecord, error)
}
