package csradapter

import (
	"openlrencoder/pkg/graph"
	"openlrencoder/pkg/network"
)

const maxExpansionHops = 64

// Adapter implements network.GraphAdapter over a preprocessed CSR graph
// and its contraction hierarchy overlay. Only the original (pre-
// contraction) CSR arrays are used for the encoder's own searches
// (ClosestEdge, ShortestPath, FindValidVertexFor); the CH overlay pointer
// is stored but no Adapter method reads it. cmd/server hands the same
// loaded CHGraph to routing.NewEngine for the plain /api/v1/route
// endpoint, so the graph is loaded once.
type Adapter struct {
	ch  *graph.CHGraph
	g   *graph.Graph
	idx *edgeIndex

	// degree[v] counts v's distinct physical neighbors (collapsing a
	// bidirectional road's two opposing directed edges into one),
	// matching OpenLR's "not a pure pass-through node" validity rule.
	degree []int32
}

// New builds an Adapter over a preprocessed graph. chg may be nil if only
// the encoder (not /api/v1/route) is needed.
func New(chg *graph.CHGraph, origGraph *graph.Graph) *Adapter {
	a := &Adapter{
		ch:     chg,
		g:      origGraph,
		idx:    buildEdgeIndex(origGraph),
		degree: computeDegrees(origGraph),
	}
	return a
}

// computeDegrees counts, per vertex, the number of distinct vertices
// connected to it by at least one directed edge in either direction —
// the CSR equivalent of pkg/networktest's symmetric adjacency lists.
func computeDegrees(g *graph.Graph) []int32 {
	seen := make([]map[uint32]struct{}, g.NumNodes)
	touch := func(u, v uint32) {
		if seen[u] == nil {
			seen[u] = make(map[uint32]struct{}, 4)
		}
		seen[u][v] = struct{}{}
	}
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			touch(u, v)
			touch(v, u)
		}
	}
	degree := make([]int32, g.NumNodes)
	for v, set := range seen {
		degree[v] = int32(len(set))
	}
	return degree
}

func (a *Adapter) VertexCoord(v int64) (network.Coordinate, bool) {
	u := uint32(v)
	if u >= a.g.NumNodes {
		return network.Coordinate{}, false
	}
	return network.Coordinate{Lat: a.g.NodeLat[u], Lon: a.g.NodeLon[u]}, true
}

// findEdgeIndex locates the directed CSR edge from -> to, if any.
func findEdgeIndex(g *graph.Graph, from, to uint32) (uint32, bool) {
	start, end := g.EdgesFrom(from)
	for e := start; e < end; e++ {
		if g.Head[e] == to {
			return e, true
		}
	}
	return 0, false
}

func (a *Adapter) EdgeShape(vFrom, vTo int64) []network.Coordinate {
	e, ok := findEdgeIndex(a.g, uint32(vFrom), uint32(vTo))
	if !ok {
		return nil
	}
	return shapeOf(a.g, e)
}

func shapeOf(g *graph.Graph, e uint32) []network.Coordinate {
	if g.GeoFirstOut == nil || e+1 >= uint32(len(g.GeoFirstOut)) {
		return nil
	}
	start, end := g.GeoFirstOut[e], g.GeoFirstOut[e+1]
	if start == end {
		return nil
	}
	out := make([]network.Coordinate, 0, end-start)
	for k := start; k < end; k++ {
		out = append(out, network.Coordinate{Lat: g.GeoShapeLat[k], Lon: g.GeoShapeLon[k]})
	}
	return out
}

// edgeFromCandidate turns an R-tree candidate into the (v1, v2, Edge)
// triple the GraphAdapter interface reports.
func edgeFromCandidate(g *graph.Graph, c candidate) (int64, int64, network.Edge) {
	return int64(c.from), int64(c.to), edgeAt(g, c.edgeIdx)
}

func (a *Adapter) ClosestEdge(coord network.Coordinate, maxDistanceMeters float64) (v1, v2 int64, edge network.Edge, ok bool) {
	c, _, found := a.idx.closest(coord.Lat, coord.Lon, maxDistanceMeters)
	if !found {
		return 0, 0, network.Edge{}, false
	}
	v1, v2, edge = edgeFromCandidate(a.g, c)
	return v1, v2, edge, true
}

// ClosestEdgeNear picks, among edges near coord1, whichever also lies
// within range of coord2, minimizing the combined perpendicular distance
// — used to disambiguate parallel carriageways when both ends of a short
// line must land on the same physical edge.
func (a *Adapter) ClosestEdgeNear(coord1, coord2 network.Coordinate, maxDistanceMeters float64) (v1, v2 int64, edge network.Edge, ok bool) {
	radius := maxDistanceMeters
	if radius <= 0 {
		radius = 500
	}
	cands := a.idx.searchRadius(coord1.Lat, coord1.Lon, radius)
	best := candidate{}
	bestSum := -1.0
	for _, c := range cands {
		d1, _ := pointToSegmentMeters(a.g, coord1, c)
		d2, _ := pointToSegmentMeters(a.g, coord2, c)
		if maxDistanceMeters > 0 && (d1 > maxDistanceMeters || d2 > maxDistanceMeters) {
			continue
		}
		sum := d1 + d2
		if bestSum < 0 || sum < bestSum {
			bestSum = sum
			c.dist = d1
			best = c
		}
	}
	if bestSum < 0 {
		return 0, 0, network.Edge{}, false
	}
	v1, v2, edge = edgeFromCandidate(a.g, best)
	return v1, v2, edge, true
}

func pointToSegmentMeters(g *graph.Graph, coord network.Coordinate, c candidate) (float64, float64) {
	return distToSegment(g, coord.Lat, coord.Lon, c.from, c.to)
}

func (a *Adapter) IsVertexValid(v int64) bool {
	u := uint32(v)
	if u >= uint32(len(a.degree)) {
		return true
	}
	return a.degree[u] != 2
}

// FindValidVertexFor walks forward out-edges from v, away from neighbor,
// until a valid vertex is reached. Every directed CSR edge is already
// legal-to-traverse by construction (pkg/osm's parser only emits a
// direction the way's oneway restriction permits), so unlike
// pkg/networktest's fixture there is no separate oneway filter to apply
// here; the forward parameter is accordingly unused, mirroring
// pkg/networktest.Graph.FindValidVertexFor's own simplification (see
// DESIGN.md).
func (a *Adapter) FindValidVertexFor(v int64, edge network.Edge, neighbor int64, exclude map[int64]bool, forward bool) (*network.PathSegment, bool) {
	chain := &network.PathSegment{Vertex: network.RealVertex(v)}
	cur, prevFrom, cost := uint32(v), uint32(neighbor), 0.0

	for hop := 0; hop < maxExpansionHops; hop++ {
		start, end := a.g.EdgesFrom(cur)
		var next uint32
		var nextEdge network.Edge
		found := false
		for e := start; e < end; e++ {
			h := a.g.Head[e]
			if h == prevFrom || exclude[int64(h)] {
				continue
			}
			next, nextEdge, found = h, edgeAt(a.g, e), true
			break
		}
		if !found {
			return nil, false
		}
		cost += nextEdge.Distance
		chain = &network.PathSegment{
			Vertex:            network.RealVertex(int64(next)),
			Cost:              cost,
			EdgeToPredecessor: nextEdge,
			Predecessor:       chain,
		}
		if a.IsVertexValid(int64(next)) {
			return chain, true
		}
		prevFrom, cur = cur, next
	}
	return nil, false
}

// ShortestPath runs a multi-source Dijkstra over the original CSR graph.
// onewayAware is always honored: every directed CSR edge is already the
// legal direction, so there is nothing additional to filter.
func (a *Adapter) ShortestPath(starts, ends []*network.PathSegment, onewayAware bool) (*network.PathSegment, bool) {
	return shortestPath(a.g, starts, ends)
}
