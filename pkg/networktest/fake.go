// Package networktest provides a tiny in-memory network.GraphAdapter and
// network.VehicleProfile for exercising the encoding core's packages
// without the full OSM/CH stack, mirroring the synthetic fixture graphs
// built directly in the CSR/CH packages' own tests.
package networktest

import (
	"math"

	"github.com/paulmach/orb"

	"openlrencoder/pkg/geo"
	"openlrencoder/pkg/network"
)

const maxExpansionHops = 32

// Profile is a map-driven network.VehicleProfile for tests.
type Profile struct {
	Oneway map[uint32]network.Oneway
	FRC    map[uint32]network.FRC
	FOW    map[uint32]network.FOW
}

func NewProfile() *Profile {
	return &Profile{Oneway: map[uint32]network.Oneway{}, FRC: map[uint32]network.FRC{}, FOW: map[uint32]network.FOW{}}
}

func (p *Profile) IsOneWay(tagsID uint32) network.Oneway {
	if v, ok := p.Oneway[tagsID]; ok {
		return v
	}
	return network.Bidirectional
}

func (p *Profile) Weight(tagsID uint32, meters float64) float64 { return meters }

func (p *Profile) Classify(tagsID uint32) (network.FRC, network.FOW, bool) {
	frc, ok := p.FRC[tagsID]
	if !ok {
		return 0, 0, false
	}
	return frc, p.FOW[tagsID], true
}

func canTraverse(oneway network.Oneway, edge network.Edge) bool {
	return network.CanTraverse(oneway, edge)
}

type vertexPair [2]int64

// Graph is a small directed-edge-map graph for tests.
type Graph struct {
	Profile *Profile

	coords map[int64]network.Coordinate
	dir    map[vertexPair]network.Edge
	shape  map[vertexPair][]network.Coordinate
	adj    map[int64][]int64
}

func NewGraph(profile *Profile) *Graph {
	return &Graph{
		Profile: profile,
		coords:  map[int64]network.Coordinate{},
		dir:     map[vertexPair]network.Edge{},
		shape:   map[vertexPair][]network.Coordinate{},
		adj:     map[int64][]int64{},
	}
}

func (g *Graph) AddVertex(id int64, lat, lon float64) {
	g.coords[id] = network.Coordinate{Lat: lat, Lon: lon}
}

// AddEdge registers a physical edge from->to with tagsID/distance. Both
// traversal directions are always recorded (Forward true for from->to,
// false for to->from); whether a direction is actually legal is decided
// at traversal time by the profile's oneway rule.
func (g *Graph) AddEdge(from, to int64, tagsID uint32, distance float64, shape []network.Coordinate) {
	g.dir[vertexPair{from, to}] = network.Edge{TagsID: tagsID, Forward: true, Distance: distance}
	g.dir[vertexPair{to, from}] = network.Edge{TagsID: tagsID, Forward: false, Distance: distance}
	g.shape[vertexPair{from, to}] = shape
	rev := make([]network.Coordinate, len(shape))
	for i, c := range shape {
		rev[len(shape)-1-i] = c
	}
	g.shape[vertexPair{to, from}] = rev
	g.adj[from] = append(g.adj[from], to)
	g.adj[to] = append(g.adj[to], from)
}

func (g *Graph) VertexCoord(v int64) (network.Coordinate, bool) {
	c, ok := g.coords[v]
	return c, ok
}

func (g *Graph) EdgeShape(vFrom, vTo int64) []network.Coordinate {
	return g.shape[vertexPair{vFrom, vTo}]
}

func (g *Graph) polyline(from, to int64) []orb.Point {
	a, ok1 := g.coords[from]
	b, ok2 := g.coords[to]
	if !ok1 || !ok2 {
		return nil
	}
	shape := g.shape[vertexPair{from, to}]
	pts := make([]orb.Point, 0, len(shape)+2)
	pts = append(pts, orb.Point{a.Lon, a.Lat})
	for _, c := range shape {
		pts = append(pts, orb.Point{c.Lon, c.Lat})
	}
	pts = append(pts, orb.Point{b.Lon, b.Lat})
	return pts
}

func (g *Graph) ClosestEdge(coord network.Coordinate, maxDistanceMeters float64) (v1, v2 int64, edge network.Edge, ok bool) {
	best := math.Inf(1)
	for pair, e := range g.dir {
		if !e.Forward {
			continue
		}
		_, perp, _ := geo.ClosestPointOnPolyline(orb.Point{coord.Lon, coord.Lat}, g.polyline(pair[0], pair[1]))
		if maxDistanceMeters > 0 && perp > maxDistanceMeters {
			continue
		}
		if perp < best {
			best, v1, v2, edge, ok = perp, pair[0], pair[1], e, true
		}
	}
	return
}

func (g *Graph) ClosestEdgeNear(coord1, coord2 network.Coordinate, maxDistanceMeters float64) (v1, v2 int64, edge network.Edge, ok bool) {
	best := math.Inf(1)
	for pair, e := range g.dir {
		if !e.Forward {
			continue
		}
		line := g.polyline(pair[0], pair[1])
		_, perp1, _ := geo.ClosestPointOnPolyline(orb.Point{coord1.Lon, coord1.Lat}, line)
		_, perp2, _ := geo.ClosestPointOnPolyline(orb.Point{coord2.Lon, coord2.Lat}, line)
		if maxDistanceMeters > 0 && (perp1 > maxDistanceMeters || perp2 > maxDistanceMeters) {
			continue
		}
		if perp1+perp2 < best {
			best, v1, v2, edge, ok = perp1+perp2, pair[0], pair[1], e, true
		}
	}
	return
}

func (g *Graph) IsVertexValid(v int64) bool {
	return len(g.adj[v]) != 2
}

func (g *Graph) weight(e network.Edge) float64 {
	if g.Profile != nil {
		return g.Profile.Weight(e.TagsID, e.Distance)
	}
	return e.Distance
}

func (g *Graph) allowed(e network.Edge, onewayAware bool) bool {
	if !onewayAware || g.Profile == nil {
		return true
	}
	return canTraverse(g.Profile.IsOneWay(e.TagsID), e)
}

// ShortestPath relaxes every edge repeatedly until no distance changes
// (graphs in tests are tiny), seeded from starts, then reattaches
// whichever end anchor produced the cheapest total.
func (g *Graph) ShortestPath(starts, ends []*network.PathSegment, onewayAware bool) (*network.PathSegment, bool) {
	dist := map[int64]float64{}
	chain := map[int64]*network.PathSegment{}

	for _, s := range starts {
		if s.Vertex.IsVirtual() {
			continue
		}
		v := s.Vertex.ID()
		if d, ok := dist[v]; !ok || s.Cost < d {
			dist[v] = s.Cost
			chain[v] = s
		}
	}

	for changed := true; changed; {
		changed = false
		for pair, e := range g.dir {
			if !g.allowed(e, onewayAware) {
				continue
			}
			from, to := pair[0], pair[1]
			df, ok := dist[from]
			if !ok {
				continue
			}
			nd := df + g.weight(e)
			if cur, ok := dist[to]; !ok || nd < cur-1e-9 {
				dist[to] = nd
				chain[to] = &network.PathSegment{Vertex: network.RealVertex(to), Cost: nd, EdgeToPredecessor: e, Predecessor: chain[from]}
				changed = true
			}
		}
	}

	var best *network.PathSegment
	bestCost := math.Inf(1)
	for _, e := range ends {
		if e.Vertex.IsVirtual() {
			continue
		}
		v := e.Vertex.ID()
		d, ok := dist[v]
		if !ok {
			continue
		}
		total := d + e.Cost
		if total < bestCost {
			bestCost = total
			tail := chain[v]
			if e.Predecessor != nil {
				tail = &network.PathSegment{Vertex: network.VirtualEndpoint(), Cost: total, EdgeToPredecessor: e.EdgeToPredecessor, Predecessor: tail}
			}
			best = tail
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// FindValidVertexFor walks away from neighbor through degree-2 vertices
// until a valid (non-pass-through) vertex is found or the graph runs out.
func (g *Graph) FindValidVertexFor(v int64, edge network.Edge, neighbor int64, exclude map[int64]bool, forward bool) (*network.PathSegment, bool) {
	chain := &network.PathSegment{Vertex: network.RealVertex(v)}
	cur, prevFrom, cost := v, neighbor, 0.0

	for hop := 0; hop < maxExpansionHops; hop++ {
		var next int64
		var nextEdge network.Edge
		found := false
		for _, n := range g.adj[cur] {
			if n == prevFrom || exclude[n] {
				continue
			}
			e, ok := g.dir[vertexPair{cur, n}]
			if !ok || !g.allowed(e, true) {
				continue
			}
			next, nextEdge, found = n, e, true
			break
		}
		if !found {
			return nil, false
		}
		cost += g.weight(nextEdge)
		chain = &network.PathSegment{Vertex: network.RealVertex(next), Cost: cost, EdgeToPredecessor: nextEdge, Predecessor: chain}
		if g.IsVertexValid(next) {
			return chain, true
		}
		prevFrom, cur = cur, next
	}
	return nil, false
}
