package implementation

import (
	"context"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/internal/mapper"
	"sponsor-advisor-be/internal/model"
	"sponsor-advisor-be/internal/repository/contract"
	"sponsor-advisor-be/internal/repository/specification"
	"sponsor-advisor-be/pkg/matcher"

	"gorm.io/gorm"
)

type CandidateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AdvisorMapper
}

func NewCandidateRepository(db *gorm.DB) contract.CandidateRepository {
	return &CandidateRepositoryImpl{
		db:     db,
		mapper: mapper.NewAdvisorMapper(),
	}
}

const listingColumns = `t.id AS team_profile_id, t.name AS team_name, t.sport, t.latitude, t.longitude,
t.total_reach, t.logo, t.images, o.id AS sponsorship_offer_id, o.marketplace_url,
p.id AS package_id, p.name AS package_name, p.price`

// FindListings is a coarse prefilter on budget, sport and bounding box.
// Exact distance filtering happens in the matcher.
func (r *CandidateRepositoryImpl) FindListings(ctx context.Context, q matcher.ListingQuery) ([]*entity.PackageListing, error) {
	specs := []specification.Specification{
		specification.ActiveListings{},
		specification.PriceBetween{Min: q.BudgetMin, Max: q.BudgetMax},
		specification.WithinBounds{Bounds: q.Bounds},
	}
	if q.Sport != nil && *q.Sport != "" {
		specs = append(specs, specification.SportEquals{Sport: *q.Sport})
	}

	query := r.db.WithContext(ctx).
		Table("sponsorship_packages AS p").
		Select(listingColumns).
		Joins("JOIN sponsorship_offers AS o ON o.id = p.offer_id").
		Joins("JOIN team_profiles AS t ON t.id = o.team_profile_id")

	var rows []*model.PackageListingRow
	if err := applySpecifications(query, specs...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	listings := make([]*entity.PackageListing, len(rows))
	for i, row := range rows {
		listings[i] = r.mapper.ListingRowToEntity(row)
	}
	return listings, nil
}

func (r *CandidateRepositoryImpl) ListTeamNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&model.TeamProfile{}).Distinct().Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *CandidateRepositoryImpl) ListPackageNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&model.SponsorshipPackage{}).
		Where("is_active = ?", true).
		Distinct().
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
