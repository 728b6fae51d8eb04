package specification

import (
	"github.com/twpayne/go-geom"
	"gorm.io/gorm"
)

// Candidate specs run against the joined listing query where
// t = team_profiles, o = sponsorship_offers, p = sponsorship_packages.

type PriceBetween struct {
	Min float64
	Max float64
}

func (s PriceBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("p.price > 0 AND p.price BETWEEN ? AND ?", s.Min, s.Max)
}

// SportEquals is a case-insensitive exact match.
type SportEquals struct {
	Sport string
}

func (s SportEquals) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("LOWER(t.sport) = LOWER(?)", s.Sport)
}

// WithinBounds keeps teams whose coordinates fall inside an XY (lon, lat) box.
type WithinBounds struct {
	Bounds *geom.Bounds
}

func (s WithinBounds) Apply(db *gorm.DB) *gorm.DB {
	if s.Bounds == nil || s.Bounds.IsEmpty() {
		return db
	}
	return db.Where("t.longitude BETWEEN ? AND ? AND t.latitude BETWEEN ? AND ?",
		s.Bounds.Min(0), s.Bounds.Max(0), s.Bounds.Min(1), s.Bounds.Max(1))
}

type ActiveListings struct{}

func (s ActiveListings) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("p.is_active = ? AND o.is_active = ?", true, true)
}
