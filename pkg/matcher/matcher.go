// Package matcher ranks sponsorship packages by distance and price for a search.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/pkg/geo"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// ErrInvalidCriteria is returned when SearchCriteria fails validation.
var ErrInvalidCriteria = errors.New("invalid search criteria")

// ListingQuery is the coarse prefilter pushed down to the catalog store.
type ListingQuery struct {
	BudgetMin float64
	BudgetMax float64
	Sport     *string
	Bounds    *geom.Bounds
}

// Store is the catalog query primitive the matcher consumes.
type Store interface {
	FindListings(ctx context.Context, q ListingQuery) ([]*entity.PackageListing, error)
	ListTeamNames(ctx context.Context) ([]string, error)
	ListPackageNames(ctx context.Context) ([]string, error)
}

type Matcher struct {
	store Store
	names *cache.Cache
}

func New(store Store) *Matcher {
	return &Matcher{
		store: store,
		names: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// ValidateCriteria rejects criteria that cannot produce a meaningful search.
func ValidateCriteria(c entity.SearchCriteria) error {
	switch {
	case !c.Origin.Valid():
		return fmt.Errorf("%w: origin out of range", ErrInvalidCriteria)
	case math.IsNaN(c.RadiusKm) || c.RadiusKm <= 0:
		return fmt.Errorf("%w: radiusKm must be greater than 0", ErrInvalidCriteria)
	case c.BudgetMin < 0:
		return fmt.Errorf("%w: budgetMin must not be negative", ErrInvalidCriteria)
	case c.BudgetMin > c.BudgetMax:
		return fmt.Errorf("%w: budgetMin must not exceed budgetMax", ErrInvalidCriteria)
	case c.Limit <= 0:
		return fmt.Errorf("%w: limit must be positive", ErrInvalidCriteria)
	}
	return nil
}

// FindCandidates returns at most criteria.Limit packages inside the radius and budget,
// closest first, cheaper first on equal distance. An empty result is not an error.
func (m *Matcher) FindCandidates(ctx context.Context, criteria entity.SearchCriteria) ([]entity.CandidatePackage, error) {
	if err := ValidateCriteria(criteria); err != nil {
		return nil, err
	}

	var sport *string
	if criteria.Sport != nil {
		if s := strings.TrimSpace(*criteria.Sport); s != "" {
			sport = &s
		}
	}

	bounds := geo.BoundingBox(criteria.Origin, criteria.RadiusKm)
	listings, err := m.store.FindListings(ctx, ListingQuery{
		BudgetMin: criteria.BudgetMin,
		BudgetMax: criteria.BudgetMax,
		Sport:     sport,
		Bounds:    bounds,
	})
	if err != nil {
		return nil, eris.Wrap(err, "matcher: query candidate store")
	}

	candidates := make([]entity.CandidatePackage, 0, len(listings))
	seen := make(map[uuid.UUID]bool, len(listings))
	for _, l := range listings {
		if l == nil || seen[l.PackageId] {
			continue
		}
		// The store prefilter is coarse, so every bound is rechecked here.
		if l.Price <= 0 || l.Price < criteria.BudgetMin || l.Price > criteria.BudgetMax {
			continue
		}
		if sport != nil && !strings.EqualFold(strings.TrimSpace(l.Sport), *sport) {
			continue
		}
		loc := l.Location()
		if !loc.Valid() || !bounds.OverlapsPoint(geom.XY, loc.Coord()) {
			continue
		}
		distance := geo.HaversineKm(criteria.Origin, loc)
		if distance > criteria.RadiusKm {
			continue
		}
		seen[l.PackageId] = true
		candidates = append(candidates, toCandidate(l, distance))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.PackageId.String() < b.PackageId.String()
	})

	if len(candidates) > criteria.Limit {
		candidates = candidates[:criteria.Limit]
	}
	return candidates, nil
}

// KnownTeamNames returns every team name in the catalog, cached for a few minutes.
func (m *Matcher) KnownTeamNames(ctx context.Context) ([]string, error) {
	if v, ok := m.names.Get("all"); ok {
		return v.([]string), nil
	}
	names, err := m.store.ListTeamNames(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "matcher: list team names")
	}
	m.names.SetDefault("all", names)
	return names, nil
}

// KnownPackageNames returns every active package name in the catalog, cached like KnownTeamNames.
func (m *Matcher) KnownPackageNames(ctx context.Context) ([]string, error) {
	if v, ok := m.names.Get("packages"); ok {
		return v.([]string), nil
	}
	names, err := m.store.ListPackageNames(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "matcher: list package names")
	}
	m.names.SetDefault("packages", names)
	return names, nil
}

// Reason is the short human-readable justification stored with each recommendation.
func Reason(c entity.CandidatePackage, criteria entity.SearchCriteria) string {
	reason := fmt.Sprintf("%.1f km from business (radius %.0f km); price %.2f within budget %.2f-%.2f",
		c.DistanceKm, criteria.RadiusKm, c.Price, criteria.BudgetMin, criteria.BudgetMax)
	if criteria.Sport != nil && *criteria.Sport != "" {
		reason += "; sport " + c.Sport
	}
	return reason
}

func toCandidate(l *entity.PackageListing, distance float64) entity.CandidatePackage {
	var costPerFan *float64
	if l.TotalReach > 0 {
		v := l.Price / float64(l.TotalReach)
		costPerFan = &v
	}

	var images []string
	if len(l.Images) > 0 {
		images = append([]string(nil), l.Images...)
	}

	var logo *string
	if l.Logo != nil {
		v := *l.Logo
		logo = &v
	}

	reach := l.TotalReach
	if reach < 0 {
		reach = 0
	}

	return entity.CandidatePackage{
		TeamProfileId:       l.TeamProfileId,
		TeamName:            l.TeamName,
		Sport:               l.Sport,
		DistanceKm:          distance,
		TotalReach:          reach,
		SponsorshipOfferId:  l.SponsorshipOfferId,
		PackageId:           l.PackageId,
		PackageName:         l.PackageName,
		Price:               l.Price,
		EstimatedCostPerFan: costPerFan,
		MarketplaceUrl:      l.MarketplaceUrl,
		Logo:                logo,
		Images:              images,
	}
}
