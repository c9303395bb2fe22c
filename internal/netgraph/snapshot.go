// Package netgraph implements the network linker (spec.md §4.E):
// resolving an Event to facilities/lanes/shipments via deterministic
// lookups against a read-only network snapshot.
package netgraph

import "github.com/hardstop/hardstop/internal/models"

// NetworkSnapshot is the read-only contract the linker consults. Two
// implementations ship in this repository: netgraph/fixture (in-memory,
// the default used by the CLI and all tests) and netgraph/graphstore
// (FalkorDB-backed). Both satisfy this interface identically; the linker
// in linker.go is backing-store agnostic.
type NetworkSnapshot interface {
	// FacilityByID returns a facility by its explicit id, if present.
	FacilityByID(id string) (models.Facility, bool)
	// FacilitiesByCityState returns facilities matching an exact
	// (city, state) pair.
	FacilitiesByCityState(city, state string) []models.Facility
	// FacilitiesByCityCountry returns facilities matching city within a
	// country, used when state is unknown.
	FacilitiesByCityCountry(city, country string) []models.Facility
	// LanesOriginatingAt returns every lane whose origin_facility_id is
	// in facilityIDs.
	LanesOriginatingAt(facilityIDs []string) []models.Lane
	// ShipmentsOnLanes returns every shipment whose lane_id is in
	// laneIDs, unfiltered by ETA/status — the linker applies those
	// filters itself so the contract stays a plain lookup.
	ShipmentsOnLanes(laneIDs []string) []models.Shipment
}
