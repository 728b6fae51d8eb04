package entity

import (
	"sponsor-advisor-be/pkg/geo"

	"github.com/google/uuid"
)

// CandidatePackage is a single ranked sponsorship option returned for one search.
// It is also the JSON payload persisted with each recommendation record.
type CandidatePackage struct {
	TeamProfileId       uuid.UUID `json:"teamProfileId"`
	TeamName            string    `json:"teamName"`
	Sport               string    `json:"sport"`
	DistanceKm          float64   `json:"distanceKm"`
	TotalReach          int64     `json:"totalReach"`
	SponsorshipOfferId  uuid.UUID `json:"sponsorshipOfferId"`
	PackageId           uuid.UUID `json:"packageId"`
	PackageName         string    `json:"packageName"`
	Price               float64   `json:"price"`
	EstimatedCostPerFan *float64  `json:"estimatedCostPerFan"`
	MarketplaceUrl      string    `json:"marketplaceUrl"`
	Logo                *string   `json:"logo"`
	Images              []string  `json:"images"`
}

// PackageListing is a raw catalog row before distance and ranking are applied.
type PackageListing struct {
	TeamProfileId      uuid.UUID
	TeamName           string
	Sport              string
	Latitude           float64
	Longitude          float64
	TotalReach         int64
	Logo               *string
	Images             []string
	SponsorshipOfferId uuid.UUID
	MarketplaceUrl     string
	PackageId          uuid.UUID
	PackageName        string
	Price              float64
}

func (l *PackageListing) Location() geo.Location {
	return geo.Location{Latitude: l.Latitude, Longitude: l.Longitude}
}

// SearchCriteria is immutable for the duration of one search.
type SearchCriteria struct {
	Origin    geo.Location
	RadiusKm  float64
	BudgetMin float64
	BudgetMax float64
	Sport     *string
	Limit     int
}
