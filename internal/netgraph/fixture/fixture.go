// Package fixture is the default in-memory NetworkSnapshot backing,
// grounded on moolen-spectre/internal/graph/models.go's node/property
// struct conventions. Used by the CLI and every test in this repository
// so the pipeline runs with zero external services.
package fixture

import (
	"sort"
	"strings"

	"github.com/hardstop/hardstop/internal/models"
	"github.com/hardstop/hardstop/internal/netgraph"
)

// Snapshot is an immutable, in-memory NetworkSnapshot.
type Snapshot struct {
	facilities []models.Facility
	lanes      []models.Lane
	shipments  []models.Shipment
}

// New builds a Snapshot from already-loaded entity slices. Loading the
// slices from disk (CSV/YAML fixtures) is an external-collaborator
// concern per spec.md §1; this constructor only assembles the in-memory
// indexes.
func New(facilities []models.Facility, lanes []models.Lane, shipments []models.Shipment) netgraph.NetworkSnapshot {
	return &Snapshot{facilities: facilities, lanes: lanes, shipments: shipments}
}

func (s *Snapshot) FacilityByID(id string) (models.Facility, bool) {
	for _, f := range s.facilities {
		if f.FacilityID == id {
			return f, true
		}
	}
	return models.Facility{}, false
}

func (s *Snapshot) FacilitiesByCityState(city, state string) []models.Facility {
	var out []models.Facility
	for _, f := range s.facilities {
		if strings.EqualFold(f.City, city) && strings.EqualFold(f.State, state) {
			out = append(out, f)
		}
	}
	sortFacilities(out)
	return out
}

func (s *Snapshot) FacilitiesByCityCountry(city, country string) []models.Facility {
	var out []models.Facility
	for _, f := range s.facilities {
		if strings.EqualFold(f.City, city) && strings.EqualFold(f.Country, country) {
			out = append(out, f)
		}
	}
	sortFacilities(out)
	return out
}

func sortFacilities(fs []models.Facility) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].FacilityID < fs[j].FacilityID })
}

func (s *Snapshot) LanesOriginatingAt(facilityIDs []string) []models.Lane {
	want := make(map[string]struct{}, len(facilityIDs))
	for _, id := range facilityIDs {
		want[id] = struct{}{}
	}
	var out []models.Lane
	for _, l := range s.lanes {
		if _, ok := want[l.OriginFacilityID]; ok {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LaneID < out[j].LaneID })
	return out
}

func (s *Snapshot) ShipmentsOnLanes(laneIDs []string) []models.Shipment {
	want := make(map[string]struct{}, len(laneIDs))
	for _, id := range laneIDs {
		want[id] = struct{}{}
	}
	var out []models.Shipment
	for _, sh := range s.shipments {
		if _, ok := want[sh.LaneID]; ok {
			out = append(out, sh)
		}
	}
	return out
}
