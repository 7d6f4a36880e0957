package csradapter

import (
	"math"

	"openlrencoder/pkg/graph"
	"openlrencoder/pkg/network"
)

// floatHeap is a binary min-heap over (node, cost) pairs with float64
// costs, grounded on pkg/routing/dijkstra.go's MinHeap but generalized
// beyond integer millimeter weights: VehicleProfile.Weight returns an
// arbitrary float64 routing cost, not a fixed-point distance.
type floatHeap struct {
	nodes []uint32
	costs []float64
}

func (h *floatHeap) Len() int { return len(h.nodes) }

func (h *floatHeap) push(node uint32, cost float64) {
	h.nodes = append(h.nodes, node)
	h.costs = append(h.costs, cost)
	h.siftUp(len(h.nodes) - 1)
}

func (h *floatHeap) pop() (uint32, float64) {
	n := len(h.nodes)
	node, cost := h.nodes[0], h.costs[0]
	h.nodes[0], h.costs[0] = h.nodes[n-1], h.costs[n-1]
	h.nodes, h.costs = h.nodes[:n-1], h.costs[:n-1]
	if len(h.nodes) > 0 {
		h.siftDown(0)
	}
	return node, cost
}

func (h *floatHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.costs[i] >= h.costs[parent] {
			break
		}
		h.nodes[i], h.nodes[parent] = h.nodes[parent], h.nodes[i]
		h.costs[i], h.costs[parent] = h.costs[parent], h.costs[i]
		i = parent
	}
}

func (h *floatHeap) siftDown(i int) {
	n := len(h.nodes)
	for {
		smallest := i
		left, right := 2*i+1, 2*i+2
		if left < n && h.costs[left] < h.costs[smallest] {
			smallest = left
		}
		if right < n && h.costs[right] < h.costs[smallest] {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.nodes[i], h.nodes[smallest] = h.nodes[smallest], h.nodes[i]
		h.costs[i], h.costs[smallest] = h.costs[smallest], h.costs[i]
		i = smallest
	}
}

// edgeAt reconstructs the network.Edge value for original CSR edge index
// e, decoding its packed TagsID/Forward fields.
func edgeAt(g *graph.Graph, e uint32) network.Edge {
	return network.Edge{
		TagsID:   g.TagsID[e],
		Forward:  g.Forward[e] != 0,
		Distance: float64(g.Weight[e]) / 1000.0,
	}
}

// predEntry tracks one settled node's predecessor during the multi-source
// Dijkstra search: the edge index used to reach it and the node it came
// from.
type predEntry struct {
	fromNode uint32
	edgeIdx  uint32
	seed     *network.PathSegment // non-nil only for seed nodes themselves
}

// shortestPath runs a multi-source, multi-target Dijkstra over the
// original (pre-contraction) CSR graph: every directed edge already
// present is traversable-legal by construction (pkg/osm's parser only
// emits directed edges the way's oneway restriction allows), so no
// additional oneway filtering is needed here. Costs are the CSR's
// millimeter distances converted to meters, matching CarProfile's
// identity weight function so this stays consistent with the same
// distances the CH graph (used by the plain /api/v1/route endpoint) was
// contracted against. See DESIGN.md for why this runs a fresh Dijkstra
// instead of reusing the CH bidirectional search.
func shortestPath(g *graph.Graph, starts, ends []*network.PathSegment) (*network.PathSegment, bool) {
	dist := make(map[uint32]float64, 64)
	pred := make(map[uint32]predEntry, 64)

	h := &floatHeap{}
	for _, s := range starts {
		if s.Vertex.IsVirtual() {
			continue
		}
		v := uint32(s.Vertex.ID())
		if d, ok := dist[v]; !ok || s.Cost < d {
			dist[v] = s.Cost
			pred[v] = predEntry{seed: s}
			h.push(v, s.Cost)
		}
	}

	wantEnd := make(map[uint32]bool, len(ends))
	for _, e := range ends {
		if !e.Vertex.IsVirtual() {
			wantEnd[uint32(e.Vertex.ID())] = true
		}
	}
	remaining := len(wantEnd)

	for h.Len() > 0 && remaining > 0 {
		u, d := h.pop()
		if d > dist[u]+1e-9 {
			continue // stale heap entry
		}
		if wantEnd[u] {
			wantEnd[u] = false
			remaining--
		}
		start, end := g.EdgesFrom(u)
		for ei := start; ei < end; ei++ {
			v := g.Head[ei]
			nd := d + float64(g.Weight[ei])/1000.0
			if cur, ok := dist[v]; !ok || nd < cur {
				dist[v] = nd
				pred[v] = predEntry{fromNode: u, edgeIdx: ei}
				h.push(v, nd)
			}
		}
	}

	var best *network.PathSegment
	bestCost := math.Inf(1)
	for _, e := range ends {
		if e.Vertex.IsVirtual() {
			continue
		}
		v := uint32(e.Vertex.ID())
		d, ok := dist[v]
		if !ok {
			continue
		}
		total := d + e.Cost
		if total < bestCost {
			bestCost = total
			tail := reconstructChain(g, dist, pred, v, total)
			if e.Predecessor != nil {
				tail = &network.PathSegment{
					Vertex:            network.VirtualEndpoint(),
					Cost:              total,
					EdgeToPredecessor: e.EdgeToPredecessor,
					Predecessor:       tail,
				}
			}
			best = tail
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// reconstructChain walks pred backward from v to its seed, building the
// PathSegment chain rooted at the seed (possibly itself chained to a
// virtual endpoint already). Every segment's Cost is its settled
// cumulative distance from dist, matching
// pkg/networktest.Graph.ShortestPath's per-node Cost bookkeeping.
func reconstructChain(g *graph.Graph, dist map[uint32]float64, pred map[uint32]predEntry, v uint32, totalCost float64) *network.PathSegment {
	type hop struct {
		node uint32
		p    predEntry
	}
	var hops []hop
	cur := v
	for {
		p := pred[cur]
		hops = append(hops, hop{cur, p})
		if p.seed != nil {
			break
		}
		cur = p.fromNode
	}
	// hops is tail-to-root; walk root-to-tail building the chain forward.
	s := hops[len(hops)-1].p.seed
	chain := &network.PathSegment{Vertex: s.Vertex, Cost: s.Cost, EdgeToPredecessor: s.EdgeToPredecessor, Predecessor: s.Predecessor}
	for i := len(hops) - 2; i >= 0; i-- {
		h := hops[i]
		chain = &network.PathSegment{
			Vertex:            network.RealVertex(int64(h.node)),
			Cost:              dist[h.node],
			EdgeToPredecessor: edgeAt(g, h.p.edgeIdx),
			Predecessor:       chain,
		}
	}
	if len(hops) == 1 {
		chain.Cost = totalCost
	}
	return chain
}
