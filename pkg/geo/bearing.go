package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Bearing returns the initial compass bearing in degrees [0, 360) for the
// great-circle path from (lat1, lon1) to (lat2, lon2), measured clockwise
// from geographic north. Delegates to orb/geo's bearing calculation and
// normalizes its (-180, 180] result into [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	deg := orbgeo.Bearing(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
	return math.Mod(deg+360, 360)
}

// InterpolateAlong returns the point that lies fraction t (0..1) of the way
// from (lat1, lon1) to (lat2, lon2) along the straight equirectangular
// chord. Good enough for the short (<=20m) segments bearing computation
// walks; not a substitute for Haversine on long segments.
func InterpolateAlong(lat1, lon1, lat2, lon2, t float64) (lat, lon float64) {
	return lat1 + t*(lat2-lat1), lon1 + t*(lon2-lon1)
}
