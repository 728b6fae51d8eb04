package contract

import (
	"context"
	"time"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type RecommendationStatRepository interface {
	IncrementImpressions(ctx context.Context, packageIds []uuid.UUID, servedAt time.Time) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecommendationStat, error)
}
