// Package graphstore adapts netgraph.NetworkSnapshot to a FalkorDB graph,
// for operators who already maintain their facility/lane/shipment network
// as a graph database rather than flat fixtures.
//
// Grounded on moolen-spectre/internal/graph/client.go's Client interface
// shape and internal/graph/query_executor.go's Cypher execution style —
// read-only queries only, since spec.md §4.E's linker never mutates the
// network snapshot. spec.md treats "the persistence layer's choice of
// embedded database" as an external collaborator whose contract, not
// implementation, is specified; this package demonstrates the
// NetworkSnapshot contract honored by a real graph database, while
// netgraph/fixture remains the zero-dependency default used by the CLI
// and tests (see DESIGN.md).
package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/FalkorDB/falkordb-go/v2"

	"github.com/hardstop/hardstop/internal/logging"
	"github.com/hardstop/hardstop/internal/models"
	"github.com/hardstop/hardstop/internal/netgraph"
)

var log = logging.GetLogger("netgraph.graphstore")

// Config mirrors the teacher's ClientConfig shape.
type Config struct {
	Host      string
	Port      int
	Password  string
	GraphName string
	Timeout   time.Duration
}

// Store is a NetworkSnapshot backed by a FalkorDB graph. Node labels:
// Facility, Lane, Shipment; edges: (Lane)-[:ORIGINATES_AT]->(Facility),
// (Shipment)-[:MOVES_ON]->(Lane).
type Store struct {
	cfg   Config
	db    *falkordb.FalkorDB
	graph *falkordb.Graph
}

// Connect opens a connection and selects the configured graph. Read-only
// by convention: this package issues no CREATE/MERGE/SET queries.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	db, err := falkordb.FalkorDBNew(&falkordb.ConnectionOption{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to falkordb at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	graph := db.SelectGraph(cfg.GraphName)
	log.Info("connected to falkordb graph %q at %s:%d", cfg.GraphName, cfg.Host, cfg.Port)
	return &Store{cfg: cfg, db: db, graph: graph}, nil
}

var _ netgraph.NetworkSnapshot = (*Store)(nil)

func (s *Store) FacilityByID(id string) (models.Facility, bool) {
	result, err := s.graph.Query(
		"MATCH (f:Facility {facility_id: $id}) RETURN f.facility_id, f.name, f.city, f.state, f.country, f.criticality_score",
		map[string]interface{}{"id": id}, nil,
	)
	if err != nil {
		log.Warn("facility lookup failed for %s: %v", id, err)
		return models.Facility{}, false
	}
	if !result.Next() {
		return models.Facility{}, false
	}
	return facilityFromRecord(result.Record()), true
}

func (s *Store) FacilitiesByCityState(city, state string) []models.Facility {
	return s.queryFacilities(
		"MATCH (f:Facility) WHERE toLower(f.city) = toLower($city) AND toLower(f.state) = toLower($state) RETURN f.facility_id, f.name, f.city, f.state, f.country, f.criticality_score ORDER BY f.facility_id",
		map[string]interface{}{"city": city, "state": state},
	)
}

func (s *Store) FacilitiesByCityCountry(city, country string) []models.Facility {
	return s.queryFacilities(
		"MATCH (f:Facility) WHERE toLower(f.city) = toLower($city) AND toLower(f.country) = toLower($country) RETURN f.facility_id, f.name, f.city, f.state, f.country, f.criticality_score ORDER BY f.facility_id",
		map[string]interface{}{"city": city, "country": country},
	)
}

func (s *Store) queryFacilities(query string, params map[string]interface{}) []models.Facility {
	result, err := s.graph.Query(query, params, nil)
	if err != nil {
		log.Warn("facility query failed: %v", err)
		return nil
	}
	var out []models.Facility
	for result.Next() {
		out = append(out, facilityFromRecord(result.Record()))
	}
	return out
}

func (s *Store) LanesOriginatingAt(facilityIDs []string) []models.Lane {
	if len(facilityIDs) == 0 {
		return nil
	}
	result, err := s.graph.Query(
		"MATCH (l:Lane)-[:ORIGINATES_AT]->(f:Facility) WHERE f.facility_id IN $ids RETURN l.lane_id, l.origin_facility_id, l.dest_facility_id, l.volume_score ORDER BY l.lane_id",
		map[string]interface{}{"ids": facilityIDs}, nil,
	)
	if err != nil {
		log.Warn("lane query failed: %v", err)
		return nil
	}
	var out []models.Lane
	for result.Next() {
		rec := result.Record()
		out = append(out, models.Lane{
			LaneID:           asString(rec.GetByIndex(0)),
			OriginFacilityID: asString(rec.GetByIndex(1)),
			DestFacilityID:   asString(rec.GetByIndex(2)),
			VolumeScore:      asInt(rec.GetByIndex(3)),
		})
	}
	return out
}

func (s *Store) ShipmentsOnLanes(laneIDs []string) []models.Shipment {
	if len(laneIDs) == 0 {
		return nil
	}
	result, err := s.graph.Query(
		"MATCH (sh:Shipment)-[:MOVES_ON]->(l:Lane) WHERE l.lane_id IN $ids RETURN sh.shipment_id, sh.lane_id, sh.eta_date, sh.status, sh.priority_flag",
		map[string]interface{}{"ids": laneIDs}, nil,
	)
	if err != nil {
		log.Warn("shipment query failed: %v", err)
		return nil
	}
	var out []models.Shipment
	for result.Next() {
		rec := result.Record()
		eta, _ := time.Parse(time.RFC3339, asString(rec.GetByIndex(2)))
		out = append(out, models.Shipment{
			ShipmentID:   asString(rec.GetByIndex(0)),
			LaneID:       asString(rec.GetByIndex(1)),
			ETADate:      eta,
			Status:       models.ShipmentStatus(asString(rec.GetByIndex(3))),
			PriorityFlag: asBool(rec.GetByIndex(4)),
		})
	}
	return out
}

func facilityFromRecord(rec *falkordb.Record) models.Facility {
	return models.Facility{
		FacilityID:       asString(rec.GetByIndex(0)),
		Name:             asString(rec.GetByIndex(1)),
		City:             asString(rec.GetByIndex(2)),
		State:            asString(rec.GetByIndex(3)),
		Country:          asString(rec.GetByIndex(4)),
		CriticalityScore: asInt(rec.GetByIndex(5)),
	}
}

func asString(v interface{}, _ error) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}, _ error) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asBool(v interface{}, _ error) bool {
	b, _ := v.(bool)
	return b
}
