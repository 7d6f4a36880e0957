// Package validator applies the OpenLR line-location validity rules to a
// freshly built ReferencedLine: connectivity, offset bounds, and the
// maximum-distance-between-points rule, expanding the route outward past
// invalid (pass-through) endpoints when the rules demand it.
package validator

import (
	"openlrencoder/pkg/encerr"
	"openlrencoder/pkg/location"
	"openlrencoder/pkg/network"
)

// MaxPointDistanceMeters is OpenLR's R1: consecutive location reference
// points must be no more than 15km apart.
const MaxPointDistanceMeters = 15000.0

// maxExpansionHops bounds expand_to_valid's retry loop so a pathological
// graph (e.g. every neighbor also degree-2) cannot loop forever.
const maxExpansionHops = 64

// ValidateOffsets checks the precondition on positive/negative offset
// percentages: both in [0,100), and their sum not exceeding 100.
func ValidateOffsets(posPct, negPct float64) error {
	if posPct < 0 || posPct >= 100 {
		return encerr.New(encerr.InvalidOffsets, "positive offset out of [0,100)")
	}
	if negPct < 0 || negPct >= 100 {
		return encerr.New(encerr.InvalidOffsets, "negative offset out of [0,100)")
	}
	if posPct+negPct > 100 {
		return encerr.New(encerr.InvalidOffsets, "offsets overlap: positive+negative exceeds route length")
	}
	return nil
}

// ValidateConnected checks that vertices/edges form a well-formed path:
// one more vertex than edge, every edge carrying positive distance, and
// every edge legally traversable in its stored direction under the
// vehicle profile's oneway restriction.
func ValidateConnected(vertices []int64, edges []network.Edge, profile network.VehicleProfile) error {
	if len(vertices) < 2 {
		return encerr.New(encerr.DisconnectedRoute, "route needs at least two vertices")
	}
	if len(edges) != len(vertices)-1 {
		return encerr.New(encerr.DisconnectedRoute, "edge count must be vertex count minus one")
	}
	for _, e := range edges {
		if e.Distance <= 0 {
			return encerr.New(encerr.DisconnectedRoute, "edge with non-positive distance")
		}
		if !network.CanTraverse(profile.IsOneWay(e.TagsID), e) {
			return encerr.New(encerr.DisconnectedRoute, "edge not traversable in route direction")
		}
	}
	return nil
}

// IsVertexValid reports whether v may terminate a location reference,
// delegating to the adapter's node-validity rule (OpenLR: degree != 2).
func IsVertexValid(v int64, adapter network.GraphAdapter) bool {
	return adapter.IsVertexValid(v)
}

// ExpandToValid walks outward from either end of line whose terminal
// vertex is not a valid LRP anchor, splicing in the path returned by
// FindValidVertexFor until both ends are valid or expansion is exhausted.
// The vertex the search must not double back through is tracked via
// exclude so a dead-end neighbor is never retried. Returns the meters
// added at the start and end respectively, so callers holding offsets
// measured against the pre-expansion route can rebase them.
func ExpandToValid(line *location.ReferencedLine, adapter network.GraphAdapter) (prependedMeters, appendedMeters float64, err error) {
	prependedMeters, err = expandEnd(line, adapter, true)
	if err != nil {
		return 0, 0, err
	}
	appendedMeters, err = expandEnd(line, adapter, false)
	if err != nil {
		return 0, 0, err
	}
	return prependedMeters, appendedMeters, nil
}

func expandEnd(line *location.ReferencedLine, adapter network.GraphAdapter, atStart bool) (float64, error) {
	exclude := map[int64]bool{}
	var addedMeters float64
	for hop := 0; hop < maxExpansionHops; hop++ {
		var terminal, neighbor int64
		var edgeToNeighbor network.Edge
		if atStart {
			terminal = line.Vertices[0]
			neighbor = line.Vertices[1]
			edgeToNeighbor = line.Edges[0]
		} else {
			n := len(line.Vertices)
			terminal = line.Vertices[n-1]
			neighbor = line.Vertices[n-2]
			edgeToNeighbor = line.Edges[n-2]
		}
		if adapter.IsVertexValid(terminal) {
			return addedMeters, nil
		}
		exclude[terminal] = true
		seg, ok := adapter.FindValidVertexFor(terminal, edgeToNeighbor, neighbor, exclude, atStart)
		if !ok {
			return 0, encerr.New(encerr.DisconnectedRoute, "no valid anchor found while expanding route")
		}
		extraVertices, extraEdges := flattenSegment(seg)
		for _, e := range extraEdges {
			addedMeters += e.Distance
		}
		if atStart {
			// flattenSegment always returns [terminal, mid..., found] walking
			// outward from terminal; prepending needs the opposite sense
			// (found becomes the new route start, terminal becomes interior),
			// so both the vertex order and each edge's direction must flip.
			revVertices := make([]int64, len(extraVertices))
			revEdges := make([]network.Edge, len(extraEdges))
			for i, v := range extraVertices {
				revVertices[len(extraVertices)-1-i] = v
			}
			for i, e := range extraEdges {
				revEdges[len(extraEdges)-1-i] = e.Reverse()
			}
			line.Vertices = append(append([]int64{}, revVertices...), line.Vertices[1:]...)
			line.Edges = append(append([]network.Edge{}, revEdges...), line.Edges...)
		} else {
			line.Vertices = append(line.Vertices[:len(line.Vertices)-1], extraVertices...)
			line.Edges = append(line.Edges, extraEdges...)
		}
		if line.TotalDistance() > MaxPointDistanceMeters {
			return 0, encerr.New(encerr.DistanceTooLarge, "expansion exceeded the maximum point-to-point distance")
		}
	}
	return 0, encerr.New(encerr.DisconnectedRoute, "expand_to_valid exhausted its hop budget")
}

// flattenSegment walks a PathSegment chain (as returned by
// FindValidVertexFor, rooted at the vertex being expanded from) into an
// ordered vertex/edge slice, oldest ancestor first.
func flattenSegment(tail *network.PathSegment) ([]int64, []network.Edge) {
	var vs []int64
	var es []network.Edge
	for s := tail; s != nil; s = s.Predecessor {
		vs = append(vs, s.Vertex.ID())
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

// ValidateBinary checks that the route's length is computable (always
// true once ValidateConnected passes) and that FRC/FOW can be resolved
// for the first and last edge, which the encoder needs regardless of how
// many interior edges the route has.
func ValidateBinary(vertices []int64, edges []network.Edge, profile network.VehicleProfile) error {
	if _, _, ok := profile.Classify(edges[0].TagsID); !ok {
		return encerr.New(encerr.ClassificationFailed, "first edge has no resolvable FRC/FOW")
	}
	if _, _, ok := profile.Classify(edges[len(edges)-1].TagsID); !ok {
		return encerr.New(encerr.ClassificationFailed, "last edge has no resolvable FRC/FOW")
	}
	return nil
}

// AdjustToValidPoints re-runs ExpandToValid and is idempotent on an
// already-valid line (expandEnd returns immediately once IsVertexValid
// holds), matching OpenLR's R4 re-check before encoding.
func AdjustToValidPoints(line *location.ReferencedLine, adapter network.GraphAdapter) error {
	preTotal := line.TotalDistance()
	prepended, appended, err := ExpandToValid(line, adapter)
	if err != nil {
		return err
	}
	// The stored percentages were fractions of the pre-expansion length;
	// convert back to meters against that length before rebasing onto the
	// expanded route.
	if prepended > 0 {
		line.PositiveOffsetPct = (line.PositiveOffsetPct/100*preTotal + prepended) / line.TotalDistance() * 100
	}
	if appended > 0 {
		line.NegativeOffsetPct = (line.NegativeOffsetPct/100*preTotal + appended) / line.TotalDistance() * 100
	}
	return nil
}

// AdjustToValidDistances enforces R1 on the final route. This
// implementation only ever produces two LRP anchors (first and last;
// intermediate-LRP insertion for routes that still exceed 15km
// post-expansion is not supported), so "adjusting" means failing loudly
// rather than splicing in a third anchor.
func AdjustToValidDistances(line *location.ReferencedLine) error {
	if line.TotalDistance() > MaxPointDistanceMeters {
		return encerr.New(encerr.DistanceTooLarge, "route exceeds the maximum point-to-point distance and this encoder cannot subdivide it")
	}
	return nil
}

// PopulateEdgeShapes fills line.EdgeShapes from the adapter, one entry per
// edge.
func PopulateEdgeShapes(line *location.ReferencedLine, adapter network.GraphAdapter) {
	line.EdgeShapes = make([][]network.Coordinate, len(line.Edges))
	for i := range line.Edges {
		line.EdgeShapes[i] = adapter.EdgeShape(line.Vertices[i], line.Vertices[i+1])
	}
}

// BuildLine runs the full line construction pipeline: connectivity,
// endpoint expansion, offset rebasing/validation, and shape population.
// posOffsetMeters/negOffsetMeters are measured against the supplied
// (pre-expansion) vertices/edges; BuildLine rebases them onto whatever
// expansion adds before converting to the percentages ReferencedLine
// stores.
func BuildLine(vertices []int64, edges []network.Edge, posOffsetMeters, negOffsetMeters float64, adapter network.GraphAdapter, profile network.VehicleProfile) (*location.ReferencedLine, error) {
	if err := ValidateConnected(vertices, edges, profile); err != nil {
		return nil, err
	}
	line := &location.ReferencedLine{
		Vertices: append([]int64{}, vertices...),
		Edges:    append([]network.Edge{}, edges...),
	}
	if line.TotalDistance() > MaxPointDistanceMeters {
		return nil, encerr.New(encerr.DistanceTooLarge, "route exceeds the maximum point-to-point distance")
	}
	prepended, appended, err := ExpandToValid(line, adapter)
	if err != nil {
		return nil, err
	}
	posOffsetMeters += prepended
	negOffsetMeters += appended

	total := line.TotalDistance()
	posPct := posOffsetMeters / total * 100
	negPct := negOffsetMeters / total * 100
	if err := ValidateOffsets(posPct, negPct); err != nil {
		return nil, err
	}
	line.PositiveOffsetPct = posPct
	line.NegativeOffsetPct = negPct

	PopulateEdgeShapes(line, adapter)
	return line, nil
}
