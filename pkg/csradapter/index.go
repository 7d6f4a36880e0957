package csradapter

import (
	"math"

	"github.com/tidwall/rtree"

	"openlrencoder/pkg/geo"
	"openlrencoder/pkg/graph"
)

// metersPerDegreeLat approximates the lat->meter conversion for sizing
// R-tree query boxes; good enough since the box is only a candidate
// filter, not the final distance test (geo.PointToSegmentDist is exact).
const metersPerDegreeLat = 111320.0

// edgeIndex backs GraphAdapter.ClosestEdge/ClosestEdgeNear with a real
// R-tree over directed edge bounding boxes, keyed by edge index into the
// original (pre-contraction) CSR graph.
type edgeIndex struct {
	tr *rtree.RTree
	g  *graph.Graph
}

func buildEdgeIndex(g *graph.Graph) *edgeIndex {
	tr := &rtree.RTree{}
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			minLat, minLon, maxLat, maxLon := edgeBounds(g, u, v, e)
			tr.Insert(
				[2]float64{minLon, minLat},
				[2]float64{maxLon, maxLat},
				e,
			)
		}
	}
	return &edgeIndex{tr: tr, g: g}
}

// edgeBounds computes the lat/lon bounding box of edge index e, including
// its intermediate shape points.
func edgeBounds(g *graph.Graph, u, v, e uint32) (minLat, minLon, maxLat, maxLon float64) {
	minLat, maxLat = g.NodeLat[u], g.NodeLat[u]
	minLon, maxLon = g.NodeLon[u], g.NodeLon[u]
	for _, lat := range []float64{g.NodeLat[v]} {
		minLat, maxLat = math.Min(minLat, lat), math.Max(maxLat, lat)
	}
	minLon, maxLon = math.Min(minLon, g.NodeLon[v]), math.Max(maxLon, g.NodeLon[v])
	if g.GeoFirstOut != nil && e+1 < uint32(len(g.GeoFirstOut)) {
		for k := g.GeoFirstOut[e]; k < g.GeoFirstOut[e+1]; k++ {
			minLat, maxLat = math.Min(minLat, g.GeoShapeLat[k]), math.Max(maxLat, g.GeoShapeLat[k])
			minLon, maxLon = math.Min(minLon, g.GeoShapeLon[k]), math.Max(maxLon, g.GeoShapeLon[k])
		}
	}
	return
}

// candidate is one R-tree hit resolved against the exact polyline distance.
type candidate struct {
	edgeIdx  uint32
	from, to uint32
	dist     float64 // meters, exact perpendicular distance
}

// searchRadius collects every edge whose bounding box intersects a
// radiusMeters square around coord.
func (ix *edgeIndex) searchRadius(lat, lon, radiusMeters float64) []candidate {
	latMargin := radiusMeters / metersPerDegreeLat
	lonMargin := radiusMeters / (metersPerDegreeLat * math.Max(math.Cos(lat*math.Pi/180), 0.1))

	var out []candidate
	ix.tr.Search(
		[2]float64{lon - lonMargin, lat - latMargin},
		[2]float64{lon + lonMargin, lat + latMargin},
		func(min, max [2]float64, data interface{}) bool {
			e := data.(uint32)
			from := findCSRSource(ix.g.FirstOut, e)
			to := ix.g.Head[e]
			out = append(out, candidate{edgeIdx: e, from: from, to: to})
			return true
		},
	)
	return out
}

// closest finds the exact-nearest edge to (lat,lon) among candidates
// found within an expanding search radius, growing the radius until the
// true nearest neighbor is guaranteed to have been seen (bestDist <=
// radius actually searched) or maxRadius is exhausted.
func (ix *edgeIndex) closest(lat, lon, maxRadius float64) (candidate, float64, bool) {
	radii := []float64{200, 500, 1500, 5000, 15000, 50000}
	if maxRadius > 0 {
		radii = []float64{maxRadius}
	}

	var best candidate
	bestDist := math.Inf(1)
	found := false

	for _, r := range radii {
		for _, c := range ix.searchRadius(lat, lon, r) {
			d, _ := geo.PointToSegmentDist(
				lat, lon,
				ix.g.NodeLat[c.from], ix.g.NodeLon[c.from],
				ix.g.NodeLat[c.to], ix.g.NodeLon[c.to],
			)
			if d < bestDist {
				bestDist = d
				c.dist = d
				best = c
				found = true
			}
		}
		if found && bestDist <= r {
			break
		}
		if maxRadius > 0 {
			break
		}
	}
	if !found {
		return candidate{}, 0, false
	}
	if maxRadius > 0 && bestDist > maxRadius {
		return candidate{}, 0, false
	}
	return best, bestDist, true
}

// distToSegment is the straight-line (endpoint-to-endpoint, ignoring
// intermediate shape points) perpendicular distance from (lat,lon) to
// edge from->to — the same approximation closest() uses, adequate since
// the R-tree box already accounts for shape-point extent and callers only
// need this to rank candidates, not to report an exact figure.
func distToSegment(g *graph.Graph, lat, lon float64, from, to uint32) (float64, float64) {
	return geo.PointToSegmentDist(lat, lon, g.NodeLat[from], g.NodeLon[from], g.NodeLat[to], g.NodeLon[to])
}

// findCSRSource finds the source node for an edge index in a CSR graph,
// via binary search over FirstOut. Grounded on pkg/routing/unpack.go's
// helper of the same name.
func findCSRSource(firstOut []uint32, edgeIdx uint32) uint32 {
	n := uint32(len(firstOut) - 1)
	lo, hi := uint32(0), n
	for lo < hi {
		mid := (lo + hi) / 2
		if firstOut[mid+1] <= edgeIdx {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
