package network

// GraphAdapter is a read-only view of a road network graph. Implementations
// must be safe for concurrent read access; the core never mutates through
// this interface.
type GraphAdapter interface {
	// VertexCoord returns the coordinate of vertex v.
	VertexCoord(v int64) (Coordinate, bool)

	// EdgeShape returns the intermediate shape points (excluding endpoints)
	// for the edge from vFrom to vTo, in that direction.
	EdgeShape(vFrom, vTo int64) []Coordinate

	// ClosestEdge finds the nearest traversable edge to coord. If
	// maxDistanceMeters is <= 0 the search is unbounded. ok is false when
	// no edge is within range.
	ClosestEdge(coord Coordinate, maxDistanceMeters float64) (v1, v2 int64, edge Edge, ok bool)

	// ClosestEdgeNear disambiguates candidate edges using two coordinates
	// (e.g. the start and end of a short line), both of which must lie
	// within maxDistanceMeters of the chosen edge.
	ClosestEdgeNear(coord1, coord2 Coordinate, maxDistanceMeters float64) (v1, v2 int64, edge Edge, ok bool)

	// ShortestPath searches from any of starts to any of ends. When
	// onewayAware is true, traversal must respect the vehicle profile's
	// oneway restrictions (always true in practice; the flag documents
	// the source's "oneway_aware" parameter). Returns the winning
	// PathSegment rooted at whichever start produced it, or ok=false if
	// no path exists.
	ShortestPath(starts, ends []*PathSegment, onewayAware bool) (*PathSegment, bool)

	// IsVertexValid reports whether v satisfies the OpenLR node-validity
	// rule (typically: degree != 2, i.e. not a pure "pass-through" node).
	IsVertexValid(v int64) bool

	// FindValidVertexFor searches outward from v along the direction
	// opposite to (or aligned with, depending on forward) the edge
	// (v, neighbor) for a valid vertex, skipping any vertex id present in
	// exclude. Returns ok=false if the search is exhausted.
	FindValidVertexFor(v int64, edge Edge, neighbor int64, exclude map[int64]bool, forward bool) (*PathSegment, bool)
}

// VehicleProfile classifies and weighs edges for a particular travel mode.
type VehicleProfile interface {
	// IsOneWay reports the traversable direction(s) of the tag set.
	IsOneWay(tagsID uint32) Oneway

	// Weight returns the routing cost of traversing meters of an edge
	// carrying tagsID. Must be monotonically non-decreasing in meters.
	Weight(tagsID uint32, meters float64) float64

	// Classify resolves the Functional Road Class and Form Of Way for an
	// edge's tags. ok is false when no classification rule matches.
	Classify(tagsID uint32) (frc FRC, fow FOW, ok bool)
}
