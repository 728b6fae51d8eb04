package main

import (
	"flag"
	"log"
	"os"

	"sponsor-advisor-be/internal/model"
	"sponsor-advisor-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

type seedPackage struct {
	Name  string
	Price float64
}

type seedTeam struct {
	Name       string
	Sport      string
	City       string
	State      string
	Latitude   float64
	Longitude  float64
	TotalReach int64
	Packages   []seedPackage
}

var teams = []seedTeam{
	{Name: "Austin Thunder FC", Sport: "Soccer", City: "Austin", State: "TX", Latitude: 30.2672, Longitude: -97.7431, TotalReach: 4200,
		Packages: []seedPackage{{"Jersey Sleeve Patch", 2500}, {"Matchday Banner", 800}}},
	{Name: "Round Rock Rebels", Sport: "Baseball", City: "Round Rock", State: "TX", Latitude: 30.5083, Longitude: -97.6789, TotalReach: 1800,
		Packages: []seedPackage{{"Outfield Sign", 1500}, {"Season Program Ad", 400}}},
	{Name: "Cedar Park Hoops", Sport: "Basketball", City: "Cedar Park", State: "TX", Latitude: 30.5052, Longitude: -97.8203, TotalReach: 950,
		Packages: []seedPackage{{"Court Side Board", 1200}}},
	{Name: "San Marcos Strikers", Sport: "Soccer", City: "San Marcos", State: "TX", Latitude: 29.8833, Longitude: -97.9414, TotalReach: 0,
		Packages: []seedPackage{{"Training Kit Logo", 600}, {"Title Sponsor", 9000}}},
	{Name: "Houston Harbor Volleyball", Sport: "Volleyball", City: "Houston", State: "TX", Latitude: 29.7604, Longitude: -95.3698, TotalReach: 3100,
		Packages: []seedPackage{{"Net Banner", 700}}},
}

func main() {
	businessUser := flag.String("business-user", "", "user id that owns the seeded business profile")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding team catalog...")
	for _, t := range teams {
		if err := seedTeamListing(db, t); err != nil {
			color.Red("  ✗ %s: %v", t.Name, err)
			continue
		}
	}

	if *businessUser != "" {
		userId, err := uuid.Parse(*businessUser)
		if err != nil {
			color.Red("Invalid -business-user: %v", err)
			os.Exit(1)
		}
		seedBusiness(db, userId)
	}

	color.Green("Seeding completed!")
}

func seedTeamListing(db *gorm.DB, t seedTeam) error {
	var existing model.TeamProfile
	if err := db.Where("name = ?", t.Name).First(&existing).Error; err == nil {
		color.Yellow("  - %s already exists, skipping", t.Name)
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		team := model.TeamProfile{
			Name:       t.Name,
			Sport:      t.Sport,
			City:       t.City,
			State:      t.State,
			Latitude:   t.Latitude,
			Longitude:  t.Longitude,
			TotalReach: t.TotalReach,
		}
		if err := tx.Create(&team).Error; err != nil {
			return err
		}

		offer := model.SponsorshipOffer{
			TeamProfileId:  team.Id,
			MarketplaceUrl: "https://marketplace.example.com/teams/" + team.Id.String(),
			IsActive:       true,
		}
		if err := tx.Create(&offer).Error; err != nil {
			return err
		}

		for _, p := range t.Packages {
			pkg := model.SponsorshipPackage{OfferId: offer.Id, Name: p.Name, Price: p.Price, IsActive: true}
			if err := tx.Create(&pkg).Error; err != nil {
				return err
			}
		}

		color.Green("  ✓ %s (%s, %d packages)", t.Name, t.Sport, len(t.Packages))
		return nil
	})
}

func seedBusiness(db *gorm.DB, userId uuid.UUID) {
	var existing model.BusinessProfile
	if err := db.Where("user_id = ?", userId).First(&existing).Error; err == nil {
		color.Yellow("Business profile for %s already exists, skipping", userId)
		return
	}

	profile := model.BusinessProfile{
		UserId:     userId,
		Name:       "Lone Star Coffee",
		City:       "Austin",
		State:      "TX",
		PostalCode: "78701",
	}
	if err := db.Create(&profile).Error; err != nil {
		color.Red("Error creating business profile: %v", err)
		return
	}
	color.Green("Created business profile %s for user %s", profile.Name, userId)
}
