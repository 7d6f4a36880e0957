package locationbuilder

import "openlrencoder/pkg/network"

// anchorEps is how close (in meters along the edge) an anchor must sit to
// a real vertex before it collapses onto that vertex instead of staying a
// mid-edge virtual point.
const anchorEps = 0.5

// anchor describes a point that lies somewhere along edge (v1, v2), s
// meters from v1 (edge total length L = edge.Distance).
type anchor struct {
	v1, v2 int64
	edge   network.Edge // oriented v1 -> v2
	s      float64
}

// candidates generates the PathSegment seed set this anchor contributes to
// a shortest-path search, either as a source (route begins here) or as a
// target (route ends here). When the anchor sits within anchorEps of v1 or
// v2 it collapses to that single real vertex with no virtual prefix.
//
// For a non-collapsed source anchor: reaching v1 means driving backward
// from the anchor (edge.Reverse()), reaching v2 means driving forward
// (edge). For a target anchor the sense is flipped: arriving at the
// anchor from v1 drives forward, from v2 drives backward.
func (a anchor) candidates(isSource bool, profile network.VehicleProfile) []*network.PathSegment {
	l := a.edge.Distance
	if a.s <= anchorEps {
		return []*network.PathSegment{{Vertex: network.RealVertex(a.v1)}}
	}
	if l-a.s <= anchorEps {
		return []*network.PathSegment{{Vertex: network.RealVertex(a.v2)}}
	}

	root := &network.PathSegment{Vertex: network.VirtualEndpoint()}
	oneway := profile.IsOneWay(a.edge.TagsID)
	var out []*network.PathSegment
	add := func(v int64, meters float64, e network.Edge) {
		out = append(out, &network.PathSegment{
			Vertex:            network.RealVertex(v),
			Cost:              profile.Weight(a.edge.TagsID, meters),
			EdgeToPredecessor: e,
			Predecessor:       root,
		})
	}
	if isSource {
		if canTraverse(oneway, a.edge.Reverse()) {
			add(a.v1, a.s, a.edge.Reverse())
		}
		if canTraverse(oneway, a.edge) {
			add(a.v2, l-a.s, a.edge)
		}
	} else {
		if canTraverse(oneway, a.edge) {
			add(a.v1, a.s, a.edge)
		}
		if canTraverse(oneway, a.edge.Reverse()) {
			add(a.v2, l-a.s, a.edge.Reverse())
		}
	}
	return out
}

func (a anchor) collapsed() bool {
	return a.s <= anchorEps || a.edge.Distance-a.s <= anchorEps
}

// otherEndpoint returns the endpoint of a's original edge that is not won,
// and the full original edge oriented other -> won, for fixing up a
// flattened path's virtual prefix/suffix into a real vertex plus edge.
// Callers needing the won -> other direction (the end-of-route fixup)
// must call .Reverse() on the returned edge themselves.
func (a anchor) otherEndpoint(won int64) (other int64, edgeOtherToWon network.Edge) {
	if won == a.v1 {
		return a.v2, a.edge.Reverse()
	}
	return a.v1, a.edge
}
