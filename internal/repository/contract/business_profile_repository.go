package contract

import (
	"context"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/internal/repository/specification"
)

type BusinessProfileRepository interface {
	Create(ctx context.Context, profile *entity.BusinessProfile) error
	UpdateCoordinates(ctx context.Context, profile *entity.BusinessProfile) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BusinessProfile, error)
}
