// Package locationbuilder turns raw coordinates into validated
// ReferencedLine / ReferencedPointAlongLine values: snapping to the
// nearest edge, routing between snap points, and resolving the virtual
// mid-edge anchors a snap produces into real vertices plus percentage
// offsets.
package locationbuilder

import (
	"openlrencoder/pkg/encerr"
	"openlrencoder/pkg/geo"
	"openlrencoder/pkg/location"
	"openlrencoder/pkg/network"
	"openlrencoder/pkg/validator"

	"github.com/paulmach/orb"
)

// Builder constructs locations against a single graph/profile pair.
type Builder struct {
	Adapter network.GraphAdapter
	Profile network.VehicleProfile
}

func New(adapter network.GraphAdapter, profile network.VehicleProfile) *Builder {
	return &Builder{Adapter: adapter, Profile: profile}
}

// BuildPointAlongLine snaps coord onto the network and returns the whole
// carrying edge as a ReferencedLine, with coord itself retained as the
// projected point. The offsets are zero unless an endpoint of the edge is
// not a valid vertex; BuildLine then extends the route to one and the
// added length becomes the offset on that side.
func (b *Builder) BuildPointAlongLine(coord network.Coordinate) (*location.ReferencedPointAlongLine, error) {
	v1, v2, e, ok := b.Adapter.ClosestEdge(coord, 0)
	if !ok {
		return nil, encerr.New(encerr.NoNetworkNearby, "no network edge found near point")
	}

	oneway := b.Profile.IsOneWay(e.TagsID)
	if !canTraverse(oneway, e) && canTraverse(oneway, e.Reverse()) {
		v1, v2 = v2, v1
		e = e.Reverse()
	}

	line, err := validator.BuildLine([]int64{v1, v2}, []network.Edge{e}, 0, 0, b.Adapter, b.Profile)
	if err != nil {
		return nil, err
	}
	return &location.ReferencedPointAlongLine{
		Route:       *line,
		Lat:         coord.Lat,
		Lon:         coord.Lon,
		Orientation: location.NoOrientation,
	}, nil
}

// BuildFromCoordinates snaps startCoord and endCoord to the network (each
// within toleranceMeters), routes between the snap points, and resolves
// the result into a fully validated ReferencedLine.
func (b *Builder) BuildFromCoordinates(startCoord, endCoord network.Coordinate, toleranceMeters float64) (*location.ReferencedLine, error) {
	sv1, sv2, se, ok := b.Adapter.ClosestEdge(startCoord, toleranceMeters)
	if !ok {
		return nil, encerr.TooFar(toleranceMeters, "no network edge found near start point")
	}
	ev1, ev2, ee, ok := b.Adapter.ClosestEdge(endCoord, toleranceMeters)
	if !ok {
		return nil, encerr.TooFar(toleranceMeters, "no network edge found near end point")
	}

	startOffset, ok := b.projectOnto(startCoord, sv1, sv2)
	if !ok {
		return nil, encerr.New(encerr.ProjectionFailed, "could not project start point onto its nearest edge")
	}
	endOffset, ok := b.projectOnto(endCoord, ev1, ev2)
	if !ok {
		return nil, encerr.New(encerr.ProjectionFailed, "could not project end point onto its nearest edge")
	}

	start := anchor{v1: sv1, v2: sv2, edge: se, s: startOffset}
	end := anchor{v1: ev1, v2: ev2, edge: ee, s: endOffset}

	var vertices []int64
	var edges []network.Edge

	if sameEdge(start, end) {
		vertices, edges = collapseSameEdge(start, end)
	} else {
		seg, ok := b.Adapter.ShortestPath(start.candidates(true, b.Profile), end.candidates(false, b.Profile), true)
		if !ok {
			return nil, encerr.New(encerr.RouteNotFound, "no route between start and end anchors")
		}
		vrefs, edgeChain := flatten(seg)
		vertices, edges = fixupEnds(vrefs, edgeChain, start, end)
	}

	if err := validator.ValidateConnected(vertices, edges, b.Profile); err != nil {
		return nil, err
	}
	if edges[0].TagsID != se.TagsID && !start.collapsed() {
		return nil, encerr.New(encerr.RoutingMismatch, "routed first edge does not match the start anchor's edge")
	}
	if edges[len(edges)-1].TagsID != ee.TagsID && !end.collapsed() {
		return nil, encerr.New(encerr.RoutingMismatch, "routed last edge does not match the end anchor's edge")
	}

	firstOffset, ok := b.projectOnto(startCoord, vertices[0], vertices[1])
	if !ok {
		return nil, encerr.New(encerr.ProjectionFailed, "could not re-project start point onto the routed first edge")
	}
	n := len(vertices)
	lastOffset, ok := b.projectOnto(endCoord, vertices[n-2], vertices[n-1])
	if !ok {
		return nil, encerr.New(encerr.ProjectionFailed, "could not re-project end point onto the routed last edge")
	}

	posOffsetMeters := firstOffset
	negOffsetMeters := edges[len(edges)-1].Distance - lastOffset
	// The projections measure along the edge geometry while Distance is the
	// edge's stored attribute; where the two disagree, clamp so neither
	// offset is negative or longer than its edge.
	if posOffsetMeters > edges[0].Distance {
		posOffsetMeters = edges[0].Distance
	}
	if negOffsetMeters < 0 {
		negOffsetMeters = 0
	}

	return validator.BuildLine(vertices, edges, posOffsetMeters, negOffsetMeters, b.Adapter, b.Profile)
}

func sameEdge(start, end anchor) bool {
	return (start.v1 == end.v1 && start.v2 == end.v2 && start.edge.TagsID == end.edge.TagsID) ||
		(start.v1 == end.v2 && start.v2 == end.v1 && start.edge.TagsID == end.edge.TagsID)
}

// collapseSameEdge handles the case where both endpoints snap to the same
// underlying edge: no routing needed, direction is chosen by which anchor
// is further along.
func collapseSameEdge(start, end anchor) ([]int64, []network.Edge) {
	if start.v1 == end.v1 {
		if start.s <= end.s {
			return []int64{start.v1, start.v2}, []network.Edge{start.edge}
		}
		return []int64{start.v2, start.v1}, []network.Edge{start.edge.Reverse()}
	}
	// start.v1 == end.v2 (opposite storage order): compare distance-from-v1.
	endSFromStartV1 := start.edge.Distance - end.s
	if start.s <= endSFromStartV1 {
		return []int64{start.v1, start.v2}, []network.Edge{start.edge}
	}
	return []int64{start.v2, start.v1}, []network.Edge{start.edge.Reverse()}
}

// projectOnto returns the distance in meters from vFrom along the
// vFrom->vTo edge geometry to the closest point to coord.
func (b *Builder) projectOnto(coord network.Coordinate, vFrom, vTo int64) (float64, bool) {
	line := b.polyline(vFrom, vTo)
	if len(line) < 2 {
		return 0, false
	}
	distAlong, _, _ := geo.ClosestPointOnPolyline(orb.Point{coord.Lon, coord.Lat}, line)
	return distAlong, true
}

func (b *Builder) polyline(vFrom, vTo int64) []orb.Point {
	from, ok1 := b.Adapter.VertexCoord(vFrom)
	to, ok2 := b.Adapter.VertexCoord(vTo)
	if !ok1 || !ok2 {
		return nil
	}
	shape := b.Adapter.EdgeShape(vFrom, vTo)
	pts := make([]orb.Point, 0, len(shape)+2)
	pts = append(pts, orb.Point{from.Lon, from.Lat})
	for _, c := range shape {
		pts = append(pts, orb.Point{c.Lon, c.Lat})
	}
	pts = append(pts, orb.Point{to.Lon, to.Lat})
	return pts
}

// flatten walks a PathSegment chain (root at the virtual/real anchor,
// tail at the search result) into forward-ordered vertex refs and edges.
func flatten(tail *network.PathSegment) ([]network.VertexRef, []network.Edge) {
	var vs []network.VertexRef
	var es []network.Edge
	for s := tail; s != nil; s = s.Predecessor {
		vs = append(vs, s.Vertex)
		if s.Predecessor != nil {
			es = append(es, s.EdgeToPredecessor)
		}
	}
	for i, j := 0, len(vs)-1; i < j; i, j = i+1, j-1 {
		vs[i], vs[j] = vs[j], vs[i]
	}
	for i, j := 0, len(es)-1; i < j; i, j = i+1, j-1 {
		es[i], es[j] = es[j], es[i]
	}
	return vs, es
}

// fixupEnds replaces a virtual vertex at either end of the chain with the
// real "other" endpoint of its originating anchor edge.
func fixupEnds(vrefs []network.VertexRef, edges []network.Edge, start, end anchor) ([]int64, []network.Edge) {
	// The virtual vertex IS the anchor's mid-edge position; it is replaced
	// in place by the original edge's other endpoint, and the partial edge
	// that reached the winning real vertex is replaced by the full
	// original edge, so the offset re-projection in BuildFromCoordinates
	// has a real edge geometry to measure against.
	if vrefs[0].IsVirtual() {
		won := vrefs[1].ID()
		other, edgeOtherToWon := start.otherEndpoint(won)
		vrefs[0] = network.RealVertex(other)
		edges[0] = edgeOtherToWon
	}
	n := len(vrefs)
	if vrefs[n-1].IsVirtual() {
		won := vrefs[n-2].ID()
		other, edgeOtherToWon := end.otherEndpoint(won)
		vrefs[n-1] = network.RealVertex(other)
		edges[n-2] = edgeOtherToWon.Reverse()
	}
	ids := make([]int64, len(vrefs))
	for i, v := range vrefs {
		ids[i] = v.ID()
	}
	return ids, edges
}
