// Package network defines the capability set (the ports)
// the encoding core consumes: a read-only view of a road network
// (GraphAdapter) and a pluggable vehicle profile (VehicleProfile). Neither
// interface prescribes how tags are stored, how edges are indexed, or
// which shortest-path algorithm is used — those are supplied by a
// concrete adapter (see package csradapter for one backed by the CSR/CH
// road graph).
package network

// Coordinate is a signed decimal-degree lat/lon pair.
type Coordinate struct {
	Lat float64
	Lon float64
}

// FRC is the OpenLR Functional Road Class, 0 (highest) to 7 (lowest).
type FRC int

const (
	FRC0 FRC = iota
	FRC1
	FRC2
	FRC3
	FRC4
	FRC5
	FRC6
	FRC7
)

// FOW is the OpenLR Form Of Way.
type FOW int

const (
	FOWUndefined FOW = iota
	FOWMotorway
	FOWMultipleCarriageway
	FOWSingleCarriageway
	FOWRoundabout
	FOWTrafficSquare
	FOWSlipRoad
	FOWOther
)

// Oneway describes the traversable direction(s) of an edge's stored tags.
type Oneway int

const (
	Bidirectional Oneway = iota
	ForwardOnly
	BackwardOnly
)

// Edge is the opaque traversable unit. Forward records the
// "stored" direction; traversal against it is represented by Reverse(),
// and Edge{}.Reverse().Reverse() == Edge{} is a defined equivalence used
// by the encoder/builder to splice paths.
type Edge struct {
	TagsID   uint32
	Forward  bool
	Distance float64 // meters along the edge geometry
}

// Reverse returns the edge traversed in the opposite direction.
func (e Edge) Reverse() Edge {
	return Edge{TagsID: e.TagsID, Forward: !e.Forward, Distance: e.Distance}
}

// CanTraverse reports whether an edge, taken in the direction its Forward
// flag records, may legally be driven under the given oneway restriction.
func CanTraverse(oneway Oneway, edgeInThisDirection Edge) bool {
	switch oneway {
	case Bidirectional:
		return true
	case ForwardOnly:
		return edgeInThisDirection.Forward
	case BackwardOnly:
		return !edgeInThisDirection.Forward
	default:
		return false
	}
}

// VertexRef is either a real graph vertex or the sentinel for a mid-edge
// anchor not yet materialized to a real vertex. This replaces the
// source's "-1 means virtual" convention with an explicit sum type.
type VertexRef struct {
	id      int64
	virtual bool
}

// RealVertex wraps a concrete graph vertex id.
func RealVertex(id int64) VertexRef { return VertexRef{id: id} }

// VirtualEndpoint is the not-yet-materialized mid-edge anchor.
func VirtualEndpoint() VertexRef { return VertexRef{virtual: true} }

// IsVirtual reports whether this ref still needs materializing.
func (v VertexRef) IsVirtual() bool { return v.virtual }

// ID returns the real vertex id. Only valid when !IsVirtual().
func (v VertexRef) ID() int64 { return v.id }

// PathSegment is an owned, singly linked chain produced by a shortest-path
// search: Predecessor is the previous segment (nil at the search root).
// Arena-free by construction — each call's segments are garbage once the
// call returns, never shared across calls.
type PathSegment struct {
	Vertex            VertexRef
	Cost              float64
	EdgeToPredecessor Edge
	Predecessor       *PathSegment
}
