package validator

import (
	"testing"

	"openlrencoder/pkg/location"
	"openlrencoder/pkg/network"
	"openlrencoder/pkg/networktest"
)

// chainGraph builds 1 --30m-- 2 --30m-- 3, with vertex 2 a pass-through
// (degree 2, invalid) node between two valid endpoints.
func chainGraph(tagsID uint32) *networktest.Graph {
	p := networktest.NewProfile()
	g := networktest.NewGraph(p)
	g.AddVertex(1, 0, 0)
	g.AddVertex(2, 0.0003, 0)
	g.AddVertex(3, 0.0006, 0)
	g.AddEdge(1, 2, tagsID, 30, nil)
	g.AddEdge(2, 3, tagsID, 30, nil)
	return g
}

func TestExpandToValid_StartExpansion(t *testing.T) {
	g := chainGraph(7)

	line := &location.ReferencedLine{
		Vertices: []int64{2, 3},
	}
	// Fetch the 2->3 edge the same way BuildLine would have recorded it.
	_, _, e, ok := g.ClosestEdge(network.Coordinate{Lat: 0.00045, Lon: 0}, 0)
	if !ok {
		t.Fatal("setup: ClosestEdge found nothing")
	}
	line.Edges = []network.Edge{e}

	prepended, appended, err := ExpandToValid(line, g)
	if err != nil {
		t.Fatalf("ExpandToValid: %v", err)
	}
	if appended != 0 {
		t.Fatalf("appended = %v, want 0 (end vertex 3 already valid)", appended)
	}
	if prepended != 30 {
		t.Fatalf("prepended = %v, want 30", prepended)
	}

	if len(line.Vertices) != 3 || line.Vertices[0] != 1 || line.Vertices[1] != 2 || line.Vertices[2] != 3 {
		t.Fatalf("Vertices = %v, want [1 2 3]", line.Vertices)
	}
	if len(line.Edges) != 2 {
		t.Fatalf("Edges length = %d, want 2", len(line.Edges))
	}
	if line.TotalDistance() != 60 {
		t.Fatalf("TotalDistance = %v, want 60", line.TotalDistance())
	}
	if line.FirstVertex() != 1 || line.LastVertex() != 3 {
		t.Fatalf("FirstVertex/LastVertex = %d/%d, want 1/3", line.FirstVertex(), line.LastVertex())
	}
}

func TestValidateConnected_OnewayViolation(t *testing.T) {
	const tagsID = uint32(9)
	p := networktest.NewProfile()
	p.Oneway[tagsID] = network.ForwardOnly

	withFlow := network.Edge{TagsID: tagsID, Forward: true, Distance: 30}
	if err := ValidateConnected([]int64{1, 2}, []network.Edge{withFlow}, p); err != nil {
		t.Fatalf("ValidateConnected with the oneway flow: %v", err)
	}
	against := withFlow.Reverse()
	if err := ValidateConnected([]int64{2, 1}, []network.Edge{against}, p); err == nil {
		t.Fatal("ValidateConnected accepted a traversal against a forward-only edge")
	}
}

func TestExpandToValid_AlreadyValid(t *testing.T) {
	g := chainGraph(7)
	_, _, e12, ok := g.ClosestEdge(network.Coordinate{Lat: 0.00015, Lon: 0}, 0)
	if !ok {
		t.Fatal("setup: ClosestEdge found nothing")
	}
	_, _, e23, ok := g.ClosestEdge(network.Coordinate{Lat: 0.00045, Lon: 0}, 0)
	if !ok {
		t.Fatal("setup: ClosestEdge found nothing")
	}
	line := &location.ReferencedLine{Vertices: []int64{1, 2, 3}, Edges: []network.Edge{e12, e23}}

	prepended, appended, err := ExpandToValid(line, g)
	if err != nil {
		t.Fatalf("ExpandToValid: %v", err)
	}
	if prepended != 0 || appended != 0 {
		t.Fatalf("prepended/appended = %v/%v, want 0/0 (both endpoints 1 and 3 are already valid)", prepended, appended)
	}
	if len(line.Vertices) != 3 || line.Vertices[0] != 1 || line.Vertices[2] != 3 {
		t.Fatalf("Vertices = %v, should be unchanged", line.Vertices)
	}
}
