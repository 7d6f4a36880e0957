package lrp

import (
	"testing"

	"openlrencoder/pkg/location"
	"openlrencoder/pkg/locationbuilder"
	"openlrencoder/pkg/network"
	"openlrencoder/pkg/networktest"
)

const metersPerDegreeLat = 111320.0

func degLat(meters float64) float64 { return meters / metersPerDegreeLat }

// singleEdgeGraph builds a 100m edge 1->2, classified FRC3/FOWSingleCarriageway.
func singleEdgeGraph(tagsID uint32) (*networktest.Graph, *networktest.Profile) {
	p := networktest.NewProfile()
	p.FRC[tagsID] = network.FRC3
	p.FOW[tagsID] = network.FOWSingleCarriageway
	g := networktest.NewGraph(p)
	g.AddVertex(1, 0, 0)
	g.AddVertex(2, degLat(100), 0)
	g.AddEdge(1, 2, tagsID, 100, nil)
	return g, p
}

func TestEncodeLine_SingleEdge(t *testing.T) {
	g, p := singleEdgeGraph(7)
	b := locationbuilder.New(g, p)

	line, err := b.BuildFromCoordinates(
		network.Coordinate{Lat: 0, Lon: 0},
		network.Coordinate{Lat: degLat(100), Lon: 0},
		10,
	)
	if err != nil {
		t.Fatalf("BuildFromCoordinates: %v", err)
	}

	path, err := EncodeLine(line, g, p)
	if err != nil {
		t.Fatalf("EncodeLine: %v", err)
	}
	if len(path.Points) != 2 {
		t.Fatalf("expected exactly 2 LRPs, got %d", len(path.Points))
	}
	first, last := path.Points[0], path.Points[1]
	if first.FRC != network.FRC3 || first.FOW != network.FOWSingleCarriageway {
		t.Fatalf("unexpected first LRP classification: %+v", first)
	}
	if first.DistanceToNextMeters == nil {
		t.Fatal("first LRP must carry a distance to next")
	}
	if *first.DistanceToNextMeters != 100 {
		t.Fatalf("expected 100m distance to next, got %d", *first.DistanceToNextMeters)
	}
	if last.DistanceToNextMeters != nil {
		t.Fatal("final LRP must not carry a distance to next")
	}
	// Travelling due north along the meridian: bearing should be ~0 degrees.
	if first.Bearing < 0 || first.Bearing > 2 {
		t.Fatalf("expected ~0 degree bearing heading due north, got %d", first.Bearing)
	}
	// The last LRP looks back toward the first point, so it faces south (~180).
	if last.Bearing < 178 || last.Bearing > 182 {
		t.Fatalf("expected ~180 degree bearing looking back south, got %d", last.Bearing)
	}
}

func TestEncodeLine_RejectsUnclassifiedEdge(t *testing.T) {
	p := networktest.NewProfile() // no FRC/FOW registered for tag 9
	g := networktest.NewGraph(p)
	g.AddVertex(1, 0, 0)
	g.AddVertex(2, degLat(100), 0)
	g.AddEdge(1, 2, 9, 100, nil)

	line := &location.ReferencedLine{Vertices: []int64{1, 2}, Edges: []network.Edge{{TagsID: 9, Distance: 100, Forward: true}}}
	if _, err := EncodeLine(line, g, p); err == nil {
		t.Fatal("expected a classification error for an edge with no FRC/FOW rule")
	}
}

// A point midway along a single bidirectional edge between two real-world
// coordinates. The edge's Distance attribute is deliberately stale (10m)
// while the actual great-circle separation is ~92m: distance-to-next and
// the offset percentage must both come from the coordinate polyline, not
// the attribute.
func TestEncodePointAlongLine_MidEdgeBidirectional(t *testing.T) {
	const tagsID = uint32(2)
	p := networktest.NewProfile()
	p.FRC[tagsID] = network.FRC2
	p.FOW[tagsID] = network.FOWSingleCarriageway

	g := networktest.NewGraph(p)
	g.AddVertex(1, 49.60597, 6.12829)
	g.AddVertex(2, 49.60521, 6.12779)
	g.AddEdge(1, 2, tagsID, 10, nil)

	b := locationbuilder.New(g, p)
	rp, err := b.BuildPointAlongLine(network.Coordinate{Lat: 49.60559, Lon: 6.12804})
	if err != nil {
		t.Fatalf("BuildPointAlongLine: %v", err)
	}
	rp.Orientation = location.FirstToSecond

	loc, err := EncodePointAlongLine(rp, g, p)
	if err != nil {
		t.Fatalf("EncodePointAlongLine: %v", err)
	}

	if loc.SideOfRoad != location.OnOrAbove {
		t.Errorf("SideOfRoad = %v, want OnOrAbove for a point on the segment", loc.SideOfRoad)
	}
	if loc.Orientation != location.FirstToSecond {
		t.Errorf("Orientation = %v, want FirstToSecond", loc.Orientation)
	}
	if loc.PositiveOffsetPct < 49.5 || loc.PositiveOffsetPct > 50.5 {
		t.Errorf("PositiveOffsetPct = %v, want ~50", loc.PositiveOffsetPct)
	}
	first := loc.First
	if first.Lat != 49.60597 || first.Lon != 6.12829 {
		t.Errorf("First coord = (%v, %v), want vertex 1's coordinate", first.Lat, first.Lon)
	}
	if first.FRC != network.FRC2 || first.FOW != network.FOWSingleCarriageway {
		t.Errorf("First classification = FRC%d/%d, want FRC2/SingleCarriageway", first.FRC, first.FOW)
	}
	if first.DistanceToNextMeters == nil {
		t.Fatal("first LRP must carry a distance to next")
	}
	if d := *first.DistanceToNextMeters; d < 90 || d > 93 {
		t.Errorf("DistanceToNextMeters = %d, want the ~92m polyline length, not the stale 10m attribute", d)
	}
	if loc.Last.Lat != 49.60521 || loc.Last.Lon != 6.12779 {
		t.Errorf("Last coord = (%v, %v), want vertex 2's coordinate", loc.Last.Lat, loc.Last.Lon)
	}
}

func TestEncodePointAlongLine_OffsetAndSide(t *testing.T) {
	g, p := singleEdgeGraph(7)
	b := locationbuilder.New(g, p)

	// Point 30m along the edge, 5m east of the meridian: travelling north,
	// a point to the east lands on the right of the directed segment.
	coord := network.Coordinate{Lat: degLat(30), Lon: degLat(5)}
	rp, err := b.BuildPointAlongLine(coord)
	if err != nil {
		t.Fatalf("BuildPointAlongLine: %v", err)
	}

	loc, err := EncodePointAlongLine(rp, g, p)
	if err != nil {
		t.Fatalf("EncodePointAlongLine: %v", err)
	}
	if loc.PositiveOffsetPct < 25 || loc.PositiveOffsetPct > 35 {
		t.Fatalf("expected offset near 30%%, got %v", loc.PositiveOffsetPct)
	}
	if loc.SideOfRoad != location.Right {
		t.Fatalf("expected the point to classify as Right of the northbound edge, got %v", loc.SideOfRoad)
	}
}
