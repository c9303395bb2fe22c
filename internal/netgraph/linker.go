package netgraph

import (
	"sort"
	"time"

	"github.com/hardstop/hardstop/internal/models"
)

const DefaultMaxShipments = 6

// LinkResult is the entity-linkage outcome for one Event, plus any
// warnings from partial network data (never a fatal error, per
// spec.md's LinkagePartial kind). The *IDs fields are what the Event's
// Scope carries forward; Facilities/Lanes/EligibleShipments are the full,
// untruncated entity objects the scorer consumes so its priority/ETA
// subscores are unaffected by the alert-scope truncation policy.
type LinkResult struct {
	FacilityIDs          []string
	LaneIDs              []string
	ShipmentIDs          []string
	ShipmentsTotalLinked int
	ShipmentsTruncated   bool
	Warnings             []models.Warning

	Facilities        []models.Facility
	Lanes             []models.Lane
	EligibleShipments []models.Shipment
}

// Link resolves an Event to facilities/lanes/shipments per spec.md §4.E's
// deterministic match order and truncation rule. explicitFacilityID, if
// non-empty, is tried first (an Event carrying an explicit facility
// reference in its source metadata); it is otherwise empty for signals
// that only carry city/state text.
func Link(snap NetworkSnapshot, ev *models.Event, explicitFacilityID string, now time.Time, maxShipments int) LinkResult {
	if maxShipments <= 0 {
		maxShipments = DefaultMaxShipments
	}
	var result LinkResult

	facilities := matchFacilities(snap, ev, explicitFacilityID, &result)
	facilityIDs := make([]string, len(facilities))
	for i, f := range facilities {
		facilityIDs[i] = f.FacilityID
	}
	sort.Strings(facilityIDs)
	result.FacilityIDs = facilityIDs
	result.Facilities = facilities

	lanes := snap.LanesOriginatingAt(facilityIDs)
	laneIDs := make([]string, len(lanes))
	for i, l := range lanes {
		laneIDs[i] = l.LaneID
	}
	sort.Strings(laneIDs)
	result.LaneIDs = laneIDs
	result.Lanes = lanes

	shipments := eligibleShipments(snap.ShipmentsOnLanes(laneIDs), now)
	sortShipments(shipments)
	result.EligibleShipments = shipments

	result.ShipmentIDs, result.ShipmentsTotalLinked, result.ShipmentsTruncated = truncateShipments(shipments, maxShipments)

	if len(facilities) == 0 && (ev.City != "" || explicitFacilityID != "") {
		result.Warnings = append(result.Warnings, models.Warning{
			Kind:    "LinkagePartial",
			Message: "no facility resolved for event " + ev.EventID,
			ItemID:  ev.EventID,
		})
	}

	return result
}

// ShipmentsForLanes re-derives shipment eligibility and truncation over
// laneIDs directly, the same logic Link applies for one event's own
// lanes. The correlator calls this on every UPDATE so a merged alert
// scope's shipments reflect the union of every event's linked lanes,
// not just the most recently linked event's isolated view.
func ShipmentsForLanes(snap NetworkSnapshot, laneIDs []string, now time.Time, maxShipments int) (ids []string, total int, truncated bool) {
	if maxShipments <= 0 {
		maxShipments = DefaultMaxShipments
	}
	shipments := eligibleShipments(snap.ShipmentsOnLanes(laneIDs), now)
	sortShipments(shipments)
	return truncateShipments(shipments, maxShipments)
}

// truncateShipments applies spec.md §4.E's cap to an already-sorted
// shipment slice and reports the pre-truncation total.
func truncateShipments(shipments []models.Shipment, maxShipments int) (ids []string, total int, truncated bool) {
	total = len(shipments)
	if total > maxShipments {
		shipments = shipments[:maxShipments]
		truncated = true
	}
	ids = make([]string, len(shipments))
	for i, sh := range shipments {
		ids[i] = sh.ShipmentID
	}
	return ids, total, truncated
}

func matchFacilities(snap NetworkSnapshot, ev *models.Event, explicitFacilityID string, result *LinkResult) []models.Facility {
	if explicitFacilityID != "" {
		if f, ok := snap.FacilityByID(explicitFacilityID); ok {
			return []models.Facility{f}
		}
	}
	if ev.City != "" && ev.State != "" {
		if fs := snap.FacilitiesByCityState(ev.City, ev.State); len(fs) > 0 {
			return fs
		}
	}
	if ev.City != "" && ev.Country != "" {
		if fs := snap.FacilitiesByCityCountry(ev.City, ev.Country); len(fs) > 0 {
			return fs
		}
	}
	return nil
}

func eligibleShipments(shipments []models.Shipment, now time.Time) []models.Shipment {
	windowEnd := now.Add(14 * 24 * time.Hour)
	var out []models.Shipment
	for _, sh := range shipments {
		if sh.ETADate.Before(now) || sh.ETADate.After(windowEnd) {
			continue
		}
		switch sh.Status {
		case models.ShipmentPending, models.ShipmentInTransit, models.ShipmentScheduled:
			out = append(out, sh)
		}
	}
	return out
}

// sortShipments orders by (priority_flag desc, eta_date asc, shipment_id
// asc), the total order spec.md §4.E requires.
func sortShipments(shipments []models.Shipment) {
	sort.Slice(shipments, func(i, j int) bool {
		a, b := shipments[i], shipments[j]
		if a.PriorityFlag != b.PriorityFlag {
			return a.PriorityFlag // true sorts first
		}
		if !a.ETADate.Equal(b.ETADate) {
			return a.ETADate.Before(b.ETADate)
		}
		return a.ShipmentID < b.ShipmentID
	})
}
