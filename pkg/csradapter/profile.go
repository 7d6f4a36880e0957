// Package csradapter adapts the CSR/CH road graph built by pkg/graph and
// pkg/ch, and the classification scheme in pkg/osm, into the encoding
// core's network.GraphAdapter and network.VehicleProfile ports. It is the
// concrete analogue of pkg/networktest's in-memory fixture, built on the
// same CSR arrays pkg/routing's CH query engine already uses.
package csradapter

import (
	"openlrencoder/pkg/network"
	"openlrencoder/pkg/osm"
)

// Profile is the car VehicleProfile: classification comes straight out of
// the packed TagsID (see pkg/osm.DecodeTagsID), and weight is distance
// itself. Costs must stay commensurate with the CH graph's precomputed
// shortcut weights (distances stored in millimeters, which dijkstra.go
// converts to meters), since both the /api/v1/route CH search
// and the encoder's own Dijkstra (see dijkstra.go) are distance-based.
type Profile struct{}

// CarProfile returns the encoder's only vehicle profile. The preprocessed
// graph is already car-only (pkg/osm.Parse filters to carHighways before
// any edge is emitted), so there is nothing mode-specific left to decide
// here beyond classification and weighting.
func CarProfile() *Profile {
	return &Profile{}
}

func (p *Profile) IsOneWay(tagsID uint32) network.Oneway {
	_, _, oneway := osm.DecodeTagsID(tagsID)
	return oneway
}

func (p *Profile) Weight(tagsID uint32, meters float64) float64 {
	return meters
}

func (p *Profile) Classify(tagsID uint32) (network.FRC, network.FOW, bool) {
	frc, fow, _ := osm.DecodeTagsID(tagsID)
	return frc, fow, true
}
