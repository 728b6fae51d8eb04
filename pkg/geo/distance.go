package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// EarthRadiusKm is the mean Earth radius used for all great-circle math.
const EarthRadiusKm = 6371.0

// Location is a resolved geographic point in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinates are inside the WGS84 range.
func (l Location) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

// Coord returns the point as a go-geom XY coordinate (lon, lat).
func (l Location) Coord() geom.Coord {
	return geom.Coord{l.Longitude, l.Latitude}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func toDegrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// HaversineKm calculates the great-circle distance between two locations in kilometers.
func HaversineKm(a, b Location) float64 {
	lat1 := toRadians(a.Latitude)
	lon1 := toRadians(a.Longitude)
	lat2 := toRadians(b.Latitude)
	lon2 := toRadians(b.Longitude)

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	hSin := math.Sin(dLat / 2)
	hSin *= hSin

	vSin := math.Sin(dLon / 2)
	vSin *= vSin

	h := hSin + math.Cos(lat1)*math.Cos(lat2)*vSin
	if h > 1 {
		h = 1
	}

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// BoundingBox returns XY bounds (x = longitude, y = latitude) that contain every
// point within radiusKm of origin. The box is a superset of the circle, so callers
// must still apply HaversineKm for the exact cut.
func BoundingBox(origin Location, radiusKm float64) *geom.Bounds {
	angular := radiusKm / EarthRadiusKm
	lat := toRadians(origin.Latitude)
	lon := toRadians(origin.Longitude)

	minLat := lat - angular
	maxLat := lat + angular

	// Circle touches a pole or crosses the antimeridian: longitude is unconstrained.
	if minLat <= -math.Pi/2 || maxLat >= math.Pi/2 {
		return geom.NewBounds(geom.XY).Set(
			-180, math.Max(toDegrees(minLat), -90),
			180, math.Min(toDegrees(maxLat), 90),
		)
	}

	dLon := math.Asin(math.Sin(angular) / math.Cos(lat))
	minLon := lon - dLon
	maxLon := lon + dLon
	if minLon < -math.Pi || maxLon > math.Pi {
		return geom.NewBounds(geom.XY).Set(-180, toDegrees(minLat), 180, toDegrees(maxLat))
	}

	return geom.NewBounds(geom.XY).Set(
		toDegrees(minLon), toDegrees(minLat),
		toDegrees(maxLon), toDegrees(maxLat),
	)
}
