package osm

import (
	"testing"

	"github.com/paulmach/osm"

	"openlrencoder/pkg/network"
)

func TestClassifyWay(t *testing.T) {
	tests := []struct {
		name    string
		tags    osm.Tags
		wantFRC network.FRC
		wantFOW network.FOW
	}{
		{
			name:    "motorway",
			tags:    osm.Tags{{Key: "highway", Value: "motorway"}},
			wantFRC: network.FRC0,
			wantFOW: network.FOWMotorway,
		},
		{
			name:    "motorway link is a slip road",
			tags:    osm.Tags{{Key: "highway", Value: "motorway_link"}},
			wantFRC: network.FRC0,
			wantFOW: network.FOWSlipRoad,
		},
		{
			name:    "primary",
			tags:    osm.Tags{{Key: "highway", Value: "primary"}},
			wantFRC: network.FRC2,
			wantFOW: network.FOWMultipleCarriageway,
		},
		{
			name:    "residential",
			tags:    osm.Tags{{Key: "highway", Value: "residential"}},
			wantFRC: network.FRC5,
			wantFOW: network.FOWSingleCarriageway,
		},
		{
			name: "roundabout overrides form of way",
			tags: osm.Tags{
				{Key: "highway", Value: "secondary"},
				{Key: "junction", Value: "roundabout"},
			},
			wantFRC: network.FRC3,
			wantFOW: network.FOWRoundabout,
		},
		{
			name:    "unknown highway value falls back to lowest class",
			tags:    osm.Tags{{Key: "highway", Value: "road"}},
			wantFRC: network.FRC7,
			wantFOW: network.FOWOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frc, fow := classifyWay(tt.tags)
			if frc != tt.wantFRC {
				t.Errorf("frc = %v, want %v", frc, tt.wantFRC)
			}
			if fow != tt.wantFOW {
				t.Errorf("fow = %v, want %v", fow, tt.wantFOW)
			}
		})
	}
}

func TestOnewayFromFlags(t *testing.T) {
	tests := []struct {
		name              string
		forward, backward bool
		want              network.Oneway
	}{
		{"both directions", true, true, network.Bidirectional},
		{"forward only", true, false, network.ForwardOnly},
		{"backward only", false, true, network.BackwardOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := onewayFromFlags(tt.forward, tt.backward); got != tt.want {
				t.Errorf("onewayFromFlags(%v, %v) = %v, want %v", tt.forward, tt.backward, got, tt.want)
			}
		})
	}
}

func TestTagsIDPacking(t *testing.T) {
	tests := []struct {
		name   string
		frc    network.FRC
		fow    network.FOW
		oneway network.Oneway
	}{
		{"motorway forward-only", network.FRC0, network.FOWMotorway, network.ForwardOnly},
		{"residential both ways", network.FRC5, network.FOWSingleCarriageway, network.Bidirectional},
		{"all fields at max", network.FRC7, network.FOWOther, network.BackwardOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := EncodeTagsID(tt.frc, tt.fow, tt.oneway)
			frc, fow, oneway := DecodeTagsID(id)
			if frc != tt.frc || fow != tt.fow || oneway != tt.oneway {
				t.Errorf("DecodeTagsID(EncodeTagsID(...)) = (%v, %v, %v), want (%v, %v, %v)",
					frc, fow, oneway, tt.frc, tt.fow, tt.oneway)
			}
		})
	}
}
