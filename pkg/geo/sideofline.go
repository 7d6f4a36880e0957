package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Side enumerates which side of a directed polyline a point falls on.
type Side int

const (
	SideOnOrAbove Side = iota
	SideLeft
	SideRight
)

// SideOfSegment classifies point p relative to the directed segment a->b
// using the sign of the 2D cross product in an equirectangular projection
// centered on the segment's latitude (consistent with PointToSegmentDist).
// A point within onLineTolerance meters of the segment is SideOnOrAbove.
func SideOfSegment(p, a, b orb.Point, onLineToleranceMeters float64) Side {
	cosLat := math.Cos((a.Lat() + b.Lat()) / 2 * math.Pi / 180)

	ax, ay := a.Lon()*cosLat, a.Lat()
	bx, by := b.Lon()*cosLat, b.Lat()
	px, py := p.Lon()*cosLat, p.Lat()

	dx, dy := bx-ax, by-ay
	cross := dx*(py-ay) - dy*(px-ax)

	segLen := math.Hypot(dx, dy)
	if segLen == 0 {
		return SideOnOrAbove
	}

	// cross/segLen is the perpendicular distance in projected-degree units;
	// convert to meters via the same equirectangular scale PointToSegmentDist uses.
	perpMeters := math.Abs(cross) / segLen * math.Pi / 180 * earthRadiusMeters
	if perpMeters <= onLineToleranceMeters {
		return SideOnOrAbove
	}
	if cross > 0 {
		return SideLeft
	}
	return SideRight
}

// ClosestPointOnPolyline projects p onto the polyline (a sequence of
// coordinates, at least 2) and returns the cumulative meters from the
// polyline start to the projection, the perpendicular distance in meters,
// and the side of the local segment the point falls on.
func ClosestPointOnPolyline(p orb.Point, line []orb.Point) (distAlong, distPerp float64, side Side) {
	if len(line) < 2 {
		return 0, math.Inf(1), SideOnOrAbove
	}

	bestPerp := math.Inf(1)
	var bestAlong float64
	var bestSide Side
	var cumulative float64

	for i := 0; i < len(line)-1; i++ {
		a, b := line[i], line[i+1]
		segLenMeters := Haversine(a.Lat(), a.Lon(), b.Lat(), b.Lon())

		perp, ratio := PointToSegmentDist(p.Lat(), p.Lon(), a.Lat(), a.Lon(), b.Lat(), b.Lon())
		if perp < bestPerp {
			bestPerp = perp
			bestAlong = cumulative + ratio*segLenMeters
			bestSide = SideOfSegment(p, a, b, 0.5)
		}
		cumulative += segLenMeters
	}

	return bestAlong, bestPerp, bestSide
}
