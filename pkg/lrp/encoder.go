// Package lrp implements the LRP encoder: turning a fully validated
// ReferencedLine / ReferencedPointAlongLine into the OpenLR Location
// Reference Point list and its physical attributes — bearing, distance
// to next, side of road, and offset percentages.
package lrp

import (
	"math"

	"github.com/paulmach/orb"

	"openlrencoder/pkg/encerr"
	"openlrencoder/pkg/geo"
	"openlrencoder/pkg/location"
	"openlrencoder/pkg/network"
	"openlrencoder/pkg/validator"
)

// bearingSampleMeters is the distance along the outgoing/incoming edge
// used to compute an LRP's bearing, per the OpenLR reference bearing
// definition.
const bearingSampleMeters = 20.0

// LocationReferencePoint is one anchor in an encoded location.
type LocationReferencePoint struct {
	Lat, Lon        float64
	Bearing         int // degrees, [0, 360)
	FRC             network.FRC
	FOW             network.FOW
	LowestFRCToNext network.FRC

	// DistanceToNextMeters is nil for the final LRP in the path.
	DistanceToNextMeters *int
}

// LocationReferencePath is the encoded form of a ReferencedLine.
type LocationReferencePath struct {
	Points             []LocationReferencePoint
	PositiveOffsetPct  float64
	NegativeOffsetPct  float64
}

// PointAlongLineLocation is the encoded form of a ReferencedPointAlongLine.
type PointAlongLineLocation struct {
	First, Last       LocationReferencePoint
	PositiveOffsetPct float64
	Orientation       location.Orientation
	SideOfRoad        location.SideOfRoad
}

// EncodeLine runs the full validation chain (connected, offsets, binary,
// adjust-to-valid-points, adjust-to-valid-distances) then emits the first
// and last LRPs.
func EncodeLine(ref *location.ReferencedLine, adapter network.GraphAdapter, profile network.VehicleProfile) (*LocationReferencePath, error) {
	if err := validator.ValidateConnected(ref.Vertices, ref.Edges, profile); err != nil {
		return nil, err
	}
	if err := validator.ValidateOffsets(ref.PositiveOffsetPct, ref.NegativeOffsetPct); err != nil {
		return nil, err
	}
	if err := validator.ValidateBinary(ref.Vertices, ref.Edges, profile); err != nil {
		return nil, err
	}
	if err := validator.AdjustToValidPoints(ref, adapter); err != nil {
		return nil, err
	}
	if err := validator.AdjustToValidDistances(ref); err != nil {
		return nil, err
	}

	firstFRC, firstFOW, _ := profile.Classify(ref.Edges[0].TagsID)
	lastFRC, lastFOW, _ := profile.Classify(ref.Edges[len(ref.Edges)-1].TagsID)

	firstCoord, ok := adapter.VertexCoord(ref.Vertices[0])
	if !ok {
		return nil, encerr.New(encerr.EncodingFailed, "first vertex has no coordinate")
	}
	lastCoord, ok := adapter.VertexCoord(ref.Vertices[len(ref.Vertices)-1])
	if !ok {
		return nil, encerr.New(encerr.EncodingFailed, "last vertex has no coordinate")
	}

	firstBearing, err := bearingAt(adapter, ref, false)
	if err != nil {
		return nil, err
	}
	lastBearing, err := bearingAt(adapter, ref, true)
	if err != nil {
		return nil, err
	}

	// Distance to next is measured along the actual coordinate polyline,
	// not the edge Distance attributes — the two can disagree when the
	// attribute was stamped from stale or simplified geometry.
	dnp := int(math.Round(polylineMeters(fullPolyline(adapter, ref))))
	lowest := lowestFRC(ref.Edges, profile)

	first := LocationReferencePoint{
		Lat: firstCoord.Lat, Lon: firstCoord.Lon, Bearing: firstBearing,
		FRC: firstFRC, FOW: firstFOW, LowestFRCToNext: lowest,
		DistanceToNextMeters: &dnp,
	}
	last := LocationReferencePoint{
		Lat: lastCoord.Lat, Lon: lastCoord.Lon, Bearing: lastBearing,
		FRC: lastFRC, FOW: lastFOW, LowestFRCToNext: lowest,
	}

	return &LocationReferencePath{
		Points:            []LocationReferencePoint{first, last},
		PositiveOffsetPct: ref.PositiveOffsetPct,
		NegativeOffsetPct: ref.NegativeOffsetPct,
	}, nil
}

// EncodePointAlongLine encodes the carrying line, then classifies the
// referenced point's side of road and its offset along the full route.
func EncodePointAlongLine(ref *location.ReferencedPointAlongLine, adapter network.GraphAdapter, profile network.VehicleProfile) (*PointAlongLineLocation, error) {
	path, err := EncodeLine(&ref.Route, adapter, profile)
	if err != nil {
		return nil, err
	}

	full := fullPolyline(adapter, &ref.Route)
	distAlong, _, side := geo.ClosestPointOnPolyline(orb.Point{ref.Lon, ref.Lat}, full)

	// Same length basis as the projection: the coordinate polyline.
	total := polylineMeters(full)
	posPct := clampOffsetPct(distAlong / total * 100)

	return &PointAlongLineLocation{
		First:             path.Points[0],
		Last:              path.Points[1],
		PositiveOffsetPct: posPct,
		Orientation:       ref.Orientation,
		SideOfRoad:        convertSide(side),
	}, nil
}

func convertSide(s geo.Side) location.SideOfRoad {
	switch s {
	case geo.SideLeft:
		return location.Left
	case geo.SideRight:
		return location.Right
	default:
		return location.OnOrAbove
	}
}

// clampOffsetPct enforces the [0, 99] output range the testable
// properties require, absorbing float slop at the upper bound.
func clampOffsetPct(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct >= 100 {
		return 99
	}
	return pct
}

func lowestFRC(edges []network.Edge, profile network.VehicleProfile) network.FRC {
	worst := network.FRC0
	for _, e := range edges {
		if frc, _, ok := profile.Classify(e.TagsID); ok && frc > worst {
			worst = frc
		}
	}
	return worst
}

// bearingAt computes the compass bearing leaving vertices[0] into the
// route (reverse=false) or leaving the last vertex backward into the
// route (reverse=true), sampling bearingSampleMeters along the edge
// shape.
func bearingAt(adapter network.GraphAdapter, ref *location.ReferencedLine, reverse bool) (int, error) {
	var anchor int64
	var walk []orb.Point

	if !reverse {
		anchor = ref.Vertices[0]
		walk = edgeWalk(adapter, ref.Vertices[0], ref.Vertices[1])
	} else {
		n := len(ref.Vertices)
		anchor = ref.Vertices[n-1]
		walk = edgeWalk(adapter, ref.Vertices[n-1], ref.Vertices[n-2])
	}
	if len(walk) < 2 {
		return 0, encerr.New(encerr.EncodingFailed, "edge geometry unavailable for bearing computation")
	}

	anchorCoord, ok := adapter.VertexCoord(anchor)
	if !ok {
		return 0, encerr.New(encerr.EncodingFailed, "anchor vertex has no coordinate")
	}

	targetLat, targetLon := sampleAlong(walk, bearingSampleMeters)
	bearing := geo.Bearing(anchorCoord.Lat, anchorCoord.Lon, targetLat, targetLon)
	return int(math.Mod(math.Round(bearing), 360)), nil
}

// edgeWalk returns the polyline from vFrom to vTo in that direction:
// vFrom's coordinate, the edge's intermediate shape (oriented correctly),
// then vTo's coordinate.
func edgeWalk(adapter network.GraphAdapter, vFrom, vTo int64) []orb.Point {
	from, ok1 := adapter.VertexCoord(vFrom)
	to, ok2 := adapter.VertexCoord(vTo)
	if !ok1 || !ok2 {
		return nil
	}
	shape := adapter.EdgeShape(vFrom, vTo)
	pts := make([]orb.Point, 0, len(shape)+2)
	pts = append(pts, orb.Point{from.Lon, from.Lat})
	for _, c := range shape {
		pts = append(pts, orb.Point{c.Lon, c.Lat})
	}
	pts = append(pts, orb.Point{to.Lon, to.Lat})
	return pts
}

// sampleAlong walks points accumulating great-circle distance and
// returns the coordinate meters along the walk, interpolating the final
// segment, or the last point if the whole walk is shorter than meters.
func sampleAlong(points []orb.Point, meters float64) (lat, lon float64) {
	var cumulative float64
	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		segLen := geo.Haversine(a.Lat(), a.Lon(), b.Lat(), b.Lon())
		if cumulative+segLen >= meters {
			t := 0.0
			if segLen > 0 {
				t = (meters - cumulative) / segLen
			}
			return geo.InterpolateAlong(a.Lat(), a.Lon(), b.Lat(), b.Lon(), t)
		}
		cumulative += segLen
	}
	last := points[len(points)-1]
	return last.Lat(), last.Lon()
}

// polylineMeters sums the great-circle segment lengths of points.
func polylineMeters(points []orb.Point) float64 {
	var total float64
	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		total += geo.Haversine(a.Lat(), a.Lon(), b.Lat(), b.Lon())
	}
	return total
}

// fullPolyline concatenates every vertex coordinate and edge shape in
// route order into one continuous polyline.
func fullPolyline(adapter network.GraphAdapter, route *location.ReferencedLine) []orb.Point {
	var pts []orb.Point
	for i := 0; i < len(route.Vertices)-1; i++ {
		seg := edgeWalk(adapter, route.Vertices[i], route.Vertices[i+1])
		if i > 0 && len(seg) > 0 {
			seg = seg[1:] // drop the duplicate shared vertex
		}
		pts = append(pts, seg...)
	}
	return pts
}
