package osm

import (
	"github.com/paulmach/osm"

	"openlrencoder/pkg/network"
)

// highwayFRC maps an OSM highway tag to its OpenLR Functional Road Class.
// Unlisted values fall through to FRC7 in classifyWay; Parse never sends
// one, since isCarAccessible accepts only the values listed here.
var highwayFRC = map[string]network.FRC{
	"motorway":       network.FRC0,
	"motorway_link":  network.FRC0,
	"trunk":          network.FRC1,
	"trunk_link":     network.FRC1,
	"primary":        network.FRC2,
	"primary_link":   network.FRC2,
	"secondary":      network.FRC3,
	"secondary_link": network.FRC3,
	"tertiary":       network.FRC4,
	"tertiary_link":  network.FRC4,
	"unclassified":   network.FRC5,
	"residential":    network.FRC5,
	"living_street":  network.FRC6,
	"service":        network.FRC7,
}

// highwayFOW maps an OSM highway tag to its OpenLR Form Of Way, before the
// junction=roundabout override in classifyWay.
var highwayFOW = map[string]network.FOW{
	"motorway":       network.FOWMotorway,
	"motorway_link":  network.FOWSlipRoad,
	"trunk":          network.FOWMultipleCarriageway,
	"trunk_link":     network.FOWSlipRoad,
	"primary":        network.FOWMultipleCarriageway,
	"primary_link":   network.FOWSlipRoad,
	"secondary":      network.FOWSingleCarriageway,
	"secondary_link": network.FOWSlipRoad,
	"tertiary":       network.FOWSingleCarriageway,
	"tertiary_link":  network.FOWSlipRoad,
	"unclassified":   network.FOWSingleCarriageway,
	"residential":    network.FOWSingleCarriageway,
	"living_street":  network.FOWSingleCarriageway,
	"service":        network.FOWOther,
}

// classifyWay derives a way's FRC/FOW classification from its tags. Called
// once per way during Pass 1; combined with its oneway restriction (already
// known from directionFlags) into the packed TagsID stamped onto every
// RawEdge the way produces.
func classifyWay(tags osm.Tags) (frc network.FRC, fow network.FOW) {
	hw := tags.Find("highway")

	frc, ok := highwayFRC[hw]
	if !ok {
		frc = network.FRC7
	}

	fow, ok = highwayFOW[hw]
	if !ok {
		fow = network.FOWOther
	}
	if tags.Find("junction") == "roundabout" {
		fow = network.FOWRoundabout
	}

	return frc, fow
}

// onewayFromFlags derives the Oneway restriction from directionFlags'
// (forward, backward) pair. Ways where neither direction is legal
// (oneway=reversible) never reach here — Parse skips them entirely.
func onewayFromFlags(forward, backward bool) network.Oneway {
	switch {
	case forward && !backward:
		return network.ForwardOnly
	case backward && !forward:
		return network.BackwardOnly
	default:
		return network.Bidirectional
	}
}

// EncodeTagsID packs a road classification into the uint32 stored as
// graph.Graph.TagsID / network.Edge.TagsID. FRC occupies the low 3 bits
// (8 values), FOW the next 3 bits (8 values), Oneway the next 2 bits (3
// values) — no lookup table is needed to recover the classification the
// preprocessing step assigned.
func EncodeTagsID(frc network.FRC, fow network.FOW, oneway network.Oneway) uint32 {
	return uint32(frc)&0x7 | (uint32(fow)&0x7)<<3 | (uint32(oneway)&0x3)<<6
}

// DecodeTagsID recovers the classification packed by EncodeTagsID.
func DecodeTagsID(tagsID uint32) (frc network.FRC, fow network.FOW, oneway network.Oneway) {
	frc = network.FRC(tagsID & 0x7)
	fow = network.FOW((tagsID >> 3) & 0x7)
	oneway = network.Oneway((tagsID >> 6) & 0x3)
	return frc, fow, oneway
}
