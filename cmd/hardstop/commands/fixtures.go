package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hardstop/hardstop/internal/models"
	"github.com/hardstop/hardstop/internal/netgraph"
	"github.com/hardstop/hardstop/internal/netgraph/fixture"
)

// The HTTP/RSS fetch adapters and the embedded database are external
// collaborators this repository does not ship (spec.md §1's Non-goals).
// These loaders are the CLI's local-testing stand-in for both: plain JSON
// files in the shape the repository contract actually requires, the same
// way moolen-spectre/cmd/transform-demo-data loads a JSON fixture file
// instead of talking to a live cluster.

// rawItemFile is the on-disk shape accepted by `hardstop run --raw-items`.
type rawItemFile struct {
	Items []rawItemSpec `json:"items"`
}

type rawItemSpec struct {
	RawItemID      string    `json:"raw_item_id"`
	SourceID       string    `json:"source_id"`
	CanonicalID    string    `json:"canonical_id"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary"`
	RawText        string    `json:"raw_text"`
	URL            string    `json:"url"`
	PublishedAtUTC time.Time `json:"published_at_utc"`
	FetchedAtUTC   time.Time `json:"fetched_at_utc"`
	TrustTier      int       `json:"trust_tier"`
	Tier           string    `json:"tier"`
	EventTypeHint  string    `json:"event_type_hint"`
}

// LoadRawItems reads a raw-item batch from path, the shape a real fetch
// adapter would otherwise hand to the raw-item store one call at a time.
func LoadRawItems(path string) ([]*models.RawItem, error) {
	var f rawItemFile
	if err := readJSONFile(path, &f); err != nil {
		return nil, fmt.Errorf("raw items file %s: %w", path, err)
	}
	out := make([]*models.RawItem, len(f.Items))
	for i, s := range f.Items {
		out[i] = &models.RawItem{
			RawItemID:      s.RawItemID,
			SourceID:       s.SourceID,
			CanonicalID:    s.CanonicalID,
			Title:          s.Title,
			Summary:        s.Summary,
			RawText:        s.RawText,
			URL:            s.URL,
			PublishedAtUTC: s.PublishedAtUTC,
			FetchedAtUTC:   s.FetchedAtUTC,
			TrustTier:      models.TrustTier(s.TrustTier),
			Tier:           models.Tier(s.Tier),
			EventTypeHint:  s.EventTypeHint,
		}
	}
	return out, nil
}

// networkFile is the on-disk shape accepted by `hardstop run --network`,
// mirroring the Facility/Lane/Shipment read-model spec.md §3 adds.
type networkFile struct {
	Facilities []models.Facility `json:"facilities"`
	Lanes      []models.Lane     `json:"lanes"`
	Shipments  []shipmentSpec    `json:"shipments"`
}

type shipmentSpec struct {
	ShipmentID   string    `json:"shipment_id"`
	LaneID       string    `json:"lane_id"`
	ETADate      time.Time `json:"eta_date"`
	Status       string    `json:"status"`
	PriorityFlag bool      `json:"priority_flag"`
}

// LoadNetworkSnapshot reads a facility/lane/shipment fixture from path
// and wraps it in the in-memory NetworkSnapshot every test in this
// repository also uses. A FalkorDB-backed snapshot
// (internal/netgraph/graphstore) is the production alternative for
// operators who already run a graph database for other tooling; this CLI
// ships the fixture-backed path since it needs no external service.
func LoadNetworkSnapshot(path string) (netgraph.NetworkSnapshot, error) {
	var f networkFile
	if err := readJSONFile(path, &f); err != nil {
		return nil, fmt.Errorf("network file %s: %w", path, err)
	}
	shipments := make([]models.Shipment, len(f.Shipments))
	for i, s := range f.Shipments {
		shipments[i] = models.Shipment{
			ShipmentID:   s.ShipmentID,
			LaneID:       s.LaneID,
			ETADate:      s.ETADate,
			Status:       models.ShipmentStatus(s.Status),
			PriorityFlag: s.PriorityFlag,
		}
	}
	return fixture.New(f.Facilities, f.Lanes, shipments), nil
}

// alertsFile is the on-disk shape accepted by `hardstop brief`, standing
// in for the alert store's repository contract until a process boundary
// (API, embedded DB) ships around it.
type alertsFile struct {
	Alerts []models.Alert `json:"alerts"`
}

// LoadAlerts reads the candidate alert set brief.Build consumes.
func LoadAlerts(path string) ([]models.Alert, error) {
	var f alertsFile
	if err := readJSONFile(path, &f); err != nil {
		return nil, fmt.Errorf("alerts file %s: %w", path, err)
	}
	return f.Alerts, nil
}

// sourceRunHistoryFile is the on-disk shape accepted by `hardstop
// doctor`, standing in for the SourceRun table's repository contract.
type sourceRunHistoryFile struct {
	Runs []models.SourceRun `json:"runs"`
}

// LoadSourceRunHistory reads the recent SourceRun rows health.Window and
// runstatus.Evaluate consult.
func LoadSourceRunHistory(path string) ([]models.SourceRun, error) {
	var f sourceRunHistoryFile
	if err := readJSONFile(path, &f); err != nil {
		return nil, fmt.Errorf("source run history file %s: %w", path, err)
	}
	return f.Runs, nil
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
