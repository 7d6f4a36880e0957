// Package location holds the in-memory representation of a referenced
// location: an ordered path through a road graph (ReferencedLine) and a
// single projected point along such a path (ReferencedPointAlongLine).
// Both are created fresh per encode call and owned entirely by that call.
package location

import "openlrencoder/pkg/network"

// Orientation describes the direction of travel a point-along-line
// location is significant for.
type Orientation int

const (
	NoOrientation Orientation = iota
	FirstToSecond
	SecondToFirst
	BothOrientations
)

// SideOfRoad describes which side of the directed polyline a projected
// point falls on.
type SideOfRoad int

const (
	OnOrAbove SideOfRoad = iota
	Left
	Right
)

// ReferencedLine is a validated (or about-to-be-validated) path through the
// graph: vertices[i] -> vertices[i+1] traversed via edges[i].
type ReferencedLine struct {
	Vertices []int64
	Edges    []network.Edge

	// EdgeShapes mirrors Edges; filled in just before encoding (may be nil
	// before that). EdgeShapes[i] holds the intermediate shape points for
	// edges[i], excluding both endpoints.
	EdgeShapes [][]network.Coordinate

	PositiveOffsetPct float64
	NegativeOffsetPct float64
}

// NumEdges returns len(Edges).
func (l *ReferencedLine) NumEdges() int { return len(l.Edges) }

// TotalDistance returns the sum of edge distances, in meters.
func (l *ReferencedLine) TotalDistance() float64 {
	var total float64
	for _, e := range l.Edges {
		total += e.Distance
	}
	return total
}

// FirstVertex and LastVertex are convenience accessors; callers must
// ensure len(Vertices) >= 2 before calling (the construction invariant).
func (l *ReferencedLine) FirstVertex() int64 { return l.Vertices[0] }
func (l *ReferencedLine) LastVertex() int64  { return l.Vertices[len(l.Vertices)-1] }

// HasVirtualVertex reports whether this line still references a sentinel
// negative vertex id (a construction bug if true once building has
// finished — ReferencedLine.Vertices is always real graph ids post-build).
func (l *ReferencedLine) HasVirtualVertex() bool {
	for _, v := range l.Vertices {
		if v < 0 {
			return true
		}
	}
	return false
}

// ReferencedPointAlongLine is a single coordinate projected onto a
// ReferencedLine (its "Route").
type ReferencedPointAlongLine struct {
	Route       ReferencedLine
	Lat, Lon    float64
	Orientation Orientation
}
