package matcher

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/pkg/geo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	listings  []*entity.PackageListing
	names        []string
	packages     []string
	err          error
	lastQuery    ListingQuery
	nameCalls    int
	packageCalls int
}

func (f *fakeStore) FindListings(ctx context.Context, q ListingQuery) ([]*entity.PackageListing, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

func (f *fakeStore) ListTeamNames(ctx context.Context) ([]string, error) {
	f.nameCalls++
	return f.names, nil
}

func (f *fakeStore) ListPackageNames(ctx context.Context) ([]string, error) {
	f.packageCalls++
	return f.packages, nil
}

// kmNorth returns a point the given distance due north of origin.
func kmNorth(origin geo.Location, km float64) (float64, float64) {
	return origin.Latitude + km/(geo.EarthRadiusKm*3.141592653589793/180), origin.Longitude
}

func listing(team, sport string, lat, lon, price float64, reach int64) *entity.PackageListing {
	return &entity.PackageListing{
		TeamProfileId:      uuid.New(),
		TeamName:           team,
		Sport:              sport,
		Latitude:           lat,
		Longitude:          lon,
		TotalReach:         reach,
		SponsorshipOfferId: uuid.New(),
		MarketplaceUrl:     "https://example.com/" + team,
		PackageId:          uuid.New(),
		PackageName:        team + " Jersey Patch",
		Price:              price,
	}
}

func strPtr(s string) *string { return &s }

func TestFindCandidates_SuccessfulMatchScenario(t *testing.T) {
	origin := geo.Location{Latitude: 40.0, Longitude: -74.0}
	soccerLat, soccerLon := kmNorth(origin, 12)
	hoopsLat, hoopsLon := kmNorth(origin, 5)

	soccer := listing("Riverside FC", "Soccer", soccerLat, soccerLon, 3000, 1500)
	hoops := listing("Metro Hoops", "Basketball", hoopsLat, hoopsLon, 1000, 800)
	store := &fakeStore{listings: []*entity.PackageListing{soccer, hoops}}

	got, err := New(store).FindCandidates(context.Background(), entity.SearchCriteria{
		Origin:    origin,
		RadiusKm:  50,
		BudgetMin: 100,
		BudgetMax: 5000,
		Sport:     strPtr("Soccer"),
		Limit:     5,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, soccer.PackageId, got[0].PackageId)
	assert.InDelta(t, 12.0, got[0].DistanceKm, 0.01)
	require.NotNil(t, got[0].EstimatedCostPerFan)
	assert.InDelta(t, 2.0, *got[0].EstimatedCostPerFan, 1e-9)

	require.NotNil(t, store.lastQuery.Bounds)
	assert.Equal(t, "Soccer", *store.lastQuery.Sport)
}

func TestFindCandidates_StoreIgnoringBoundsIsFiltered(t *testing.T) {
	origin := geo.Location{Latitude: 40.0, Longitude: -74.0}
	nearLat, nearLon := kmNorth(origin, 30)
	farLat, farLon := kmNorth(origin, 400)

	near := listing("Riverside FC", "Soccer", nearLat, nearLon, 1000, 100)
	far := listing("Lakeside United", "Soccer", farLat, farLon, 1000, 100)
	store := &fakeStore{listings: []*entity.PackageListing{far, near}}

	got, err := New(store).FindCandidates(context.Background(), entity.SearchCriteria{
		Origin: origin, RadiusKm: 50, BudgetMin: 0, BudgetMax: 5000, Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.PackageId, got[0].PackageId)

	b := store.lastQuery.Bounds
	require.NotNil(t, b)
	assert.True(t, b.OverlapsPoint(b.Layout(), near.Location().Coord()))
	assert.False(t, b.OverlapsPoint(b.Layout(), far.Location().Coord()))
}

func TestFindCandidates_SportIsCaseInsensitive(t *testing.T) {
	origin := geo.Location{Latitude: 40.0, Longitude: -74.0}
	lat, lon := kmNorth(origin, 3)
	store := &fakeStore{listings: []*entity.PackageListing{listing("A", "soccer", lat, lon, 500, 10)}}

	got, err := New(store).FindCandidates(context.Background(), entity.SearchCriteria{
		Origin: origin, RadiusKm: 10, BudgetMin: 0, BudgetMax: 1000, Sport: strPtr(" SOCCER "), Limit: 5,
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFindCandidates_ZeroReachHasNilCostPerFan(t *testing.T) {
	origin := geo.Location{Latitude: 40.0, Longitude: -74.0}
	store := &fakeStore{listings: []*entity.PackageListing{listing("A", "Soccer", 40.0, -74.0, 500, 0)}}

	got, err := New(store).FindCandidates(context.Background(), entity.SearchCriteria{
		Origin: origin, RadiusKm: 10, BudgetMin: 0, BudgetMax: 1000, Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].EstimatedCostPerFan)
	assert.Equal(t, 0.0, got[0].DistanceKm)
}

func TestFindCandidates_BudgetTooTightReturnsEmpty(t *testing.T) {
	origin := geo.Location{Latitude: 40.0, Longitude: -74.0}
	store := &fakeStore{listings: []*entity.PackageListing{listing("A", "Soccer", 40.0, -74.0, 500, 100)}}

	got, err := New(store).FindCandidates(context.Background(), entity.SearchCriteria{
		Origin: origin, RadiusKm: 50, BudgetMin: 1, BudgetMax: 10, Limit: 5,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindCandidates_InvalidCriteria(t *testing.T) {
	store := &fakeStore{}
	origin := geo.Location{Latitude: 40, Longitude: -74}

	tests := []struct {
		name     string
		criteria entity.SearchCriteria
	}{
		{"zero radius", entity.SearchCriteria{Origin: origin, RadiusKm: 0, BudgetMax: 10, Limit: 1}},
		{"negative radius", entity.SearchCriteria{Origin: origin, RadiusKm: -5, BudgetMax: 10, Limit: 1}},
		{"inverted budget", entity.SearchCriteria{Origin: origin, RadiusKm: 5, BudgetMin: 20, BudgetMax: 10, Limit: 1}},
		{"negative budget", entity.SearchCriteria{Origin: origin, RadiusKm: 5, BudgetMin: -1, BudgetMax: 10, Limit: 1}},
		{"zero limit", entity.SearchCriteria{Origin: origin, RadiusKm: 5, BudgetMax: 10, Limit: 0}},
		{"bad origin", entity.SearchCriteria{Origin: geo.Location{Latitude: 100}, RadiusKm: 5, BudgetMax: 10, Limit: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(store).FindCandidates(context.Background(), tt.criteria)
			assert.ErrorIs(t, err, ErrInvalidCriteria)
		})
	}
}

func TestFindCandidates_StoreErrorIsWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	store := &fakeStore{err: boom}

	_, err := New(store).FindCandidates(context.Background(), entity.SearchCriteria{
		Origin: geo.Location{Latitude: 40, Longitude: -74}, RadiusKm: 5, BudgetMax: 10, Limit: 1,
	})
	assert.ErrorIs(t, err, boom)
}

// Randomized catalog checked against the distance, budget, ordering and truncation laws.
func TestFindCandidates_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	origin := geo.Location{Latitude: 40.0, Longitude: -74.0}
	sports := []string{"Soccer", "Basketball", "Hockey"}

	for iter := 0; iter < 50; iter++ {
		var listings []*entity.PackageListing
		for i := 0; i < 40; i++ {
			l := listing("Team", sports[rng.Intn(len(sports))],
				origin.Latitude+(rng.Float64()-0.5)*2,
				origin.Longitude+(rng.Float64()-0.5)*2,
				float64(rng.Intn(50))*100+100,
				int64(rng.Intn(3000)))
			listings = append(listings, l)
		}
		// Duplicate distance and price to exercise the tie-breakers.
		dup := *listings[0]
		dup.PackageId = uuid.New()
		listings = append(listings, &dup)

		criteria := entity.SearchCriteria{
			Origin:    origin,
			RadiusKm:  10 + rng.Float64()*80,
			BudgetMin: float64(rng.Intn(10)) * 100,
			BudgetMax: 1500 + float64(rng.Intn(30))*100,
			Limit:     1 + rng.Intn(8),
		}

		got, err := New(&fakeStore{listings: listings}).FindCandidates(context.Background(), criteria)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), criteria.Limit)

		for i, c := range got {
			assert.LessOrEqual(t, c.DistanceKm, criteria.RadiusKm)
			assert.GreaterOrEqual(t, c.DistanceKm, 0.0)
			assert.GreaterOrEqual(t, c.Price, criteria.BudgetMin)
			assert.LessOrEqual(t, c.Price, criteria.BudgetMax)
			if i > 0 {
				prev := got[i-1]
				assert.LessOrEqual(t, prev.DistanceKm, c.DistanceKm)
				if prev.DistanceKm == c.DistanceKm {
					assert.LessOrEqual(t, prev.Price, c.Price)
				}
			}
		}
	}
}

func TestKnownTeamNamesIsCached(t *testing.T) {
	store := &fakeStore{names: []string{"Riverside FC"}}
	m := New(store)

	for i := 0; i < 3; i++ {
		names, err := m.KnownTeamNames(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Riverside FC"}, names)
	}
	assert.Equal(t, 1, store.nameCalls)
}

func TestKnownPackageNamesIsCachedSeparately(t *testing.T) {
	store := &fakeStore{names: []string{"Riverside FC"}, packages: []string{"Jersey Patch", "Title Sponsor"}}
	m := New(store)

	for i := 0; i < 2; i++ {
		packages, err := m.KnownPackageNames(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Jersey Patch", "Title Sponsor"}, packages)

		teams, err := m.KnownTeamNames(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Riverside FC"}, teams)
	}
	assert.Equal(t, 1, store.packageCalls)
	assert.Equal(t, 1, store.nameCalls)
}
