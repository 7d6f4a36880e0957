package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

const earthRadiusMeters = 6_371_000.0

// Haversine returns the great-circle distance in meters between two points,
// delegating to orb/geo's haversine implementation so edge weighting,
// snapping, and LRP distance-to-next all agree on one distance function.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// EquirectangularDist returns orb/geo's faster planar-approximation
// distance in meters, accurate to well under 1% at the short (edge-length
// and snap-radius) scales this package is used at.
// Use for candidate filtering and comparisons, not for final edge weights.
func EquirectangularDist(lat1, lon1, lat2, lon2 float64) float64 {
	return orbgeo.Distance(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// PointToSegmentDist computes the perpendicular distance from point P to segment AB,
// and returns the projection ratio along AB (clamped to [0,1]).
// dist is in meters, ratio is in [0.0, 1.0].
func PointToSegmentDist(pLat, pLon, aLat, aLon, bLat, bLon float64) (dist float64, ratio float64) {
	// Work in an equirectangular projection centered on the segment's
	// latitude; orb/geo has no point-to-segment primitive, so this stays
	// hand-rolled planar geometry, same as SideOfSegment's cross product.
	cosLat := math.Cos((aLat+bLat) / 2 * math.Pi / 180)

	// Convert to approximate planar coordinates (degrees, with longitude
	// scaled by cos(lat) so both axes share one unit).
	ax := aLon * cosLat
	ay := aLat
	bx := bLon * cosLat
	by := bLat
	px := pLon * cosLat
	py := pLat

	// Check for degenerate segment using original coordinates.
	if aLat == bLat && aLon == bLon {
		return Haversine(pLat, pLon, aLat, aLon), 0
	}

	dx := bx - ax
	dy := by - ay
	lenSq := dx*dx + dy*dy

	if lenSq == 0 {
		return Haversine(pLat, pLon, aLat, aLon), 0
	}

	// Project P onto line AB, clamp to [0,1].
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	// Closest point on segment in original coordinates.
	closeLat := aLat + t*(bLat-aLat)
	closeLon := aLon + t*(bLon-aLon)

	return Haversine(pLat, pLon, closeLat, closeLon), t
}
