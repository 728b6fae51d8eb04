package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BusinessProfile struct {
	Id         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	Name       string     `gorm:"type:text;not null"`
	City       string     `gorm:"type:text"`
	State      string     `gorm:"type:text"`
	PostalCode string     `gorm:"type:varchar(20)"`
	Latitude   *float64   `gorm:"type:double precision"`
	Longitude  *float64   `gorm:"type:double precision"`
	GeocodedAt *time.Time
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (BusinessProfile) TableName() string {
	return "business_profiles"
}

type TeamProfile struct {
	Id         uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string                      `gorm:"type:text;not null;index"`
	Sport      string                      `gorm:"type:varchar(64);not null;index"`
	City       string                      `gorm:"type:text"`
	State      string                      `gorm:"type:text"`
	Latitude   float64                     `gorm:"type:double precision;not null;index:idx_team_lat_lon,priority:1"`
	Longitude  float64                     `gorm:"type:double precision;not null;index:idx_team_lat_lon,priority:2"`
	TotalReach int64                       `gorm:"not null;default:0"`
	Logo       *string                     `gorm:"type:text"`
	Images     datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt  time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt  time.Time                   `gorm:"autoUpdateTime"`
}

func (TeamProfile) TableName() string {
	return "team_profiles"
}

type SponsorshipOffer struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TeamProfileId  uuid.UUID `gorm:"type:uuid;not null;index"`
	MarketplaceUrl string    `gorm:"type:text;not null"`
	IsActive       bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`

	TeamProfile *TeamProfile `gorm:"foreignKey:TeamProfileId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (SponsorshipOffer) TableName() string {
	return "sponsorship_offers"
}

type SponsorshipPackage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OfferId   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:text;not null"`
	Price     float64   `gorm:"type:numeric(12,2);not null;index"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Offer *SponsorshipOffer `gorm:"foreignKey:OfferId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (SponsorshipPackage) TableName() string {
	return "sponsorship_packages"
}

// PackageListingRow is the scan target of the joined catalog query.
type PackageListingRow struct {
	TeamProfileId      uuid.UUID
	TeamName           string
	Sport              string
	Latitude           float64
	Longitude          float64
	TotalReach         int64
	Logo               *string
	Images             datatypes.JSONSlice[string]
	SponsorshipOfferId uuid.UUID
	MarketplaceUrl     string
	PackageId          uuid.UUID
	PackageName        string
	Price              float64
}
