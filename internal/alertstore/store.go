// Package alertstore is the default in-memory implementation of
// correlator.Store. Alerts are grouped by correlation_key only:
// FindActiveByKey scans every alert under the key and returns the one
// with the newest last_seen_utc inside the window. There is no index on
// last_seen_utc; the scan is linear in the number of alerts sharing a key.
//
// Grounded on moolen-spectre/internal/storage/storage.go's map-backed
// store idiom, same as internal/rawstore.
package alertstore

import (
	"sort"
	"sync"
	"time"

	"github.com/hardstop/hardstop/internal/correlator"
	"github.com/hardstop/hardstop/internal/logging"
	"github.com/hardstop/hardstop/internal/models"
)

type memStore struct {
	mu     sync.RWMutex
	logger *logging.Logger

	byID  map[string]models.Alert
	byKey map[string][]string // correlation_key -> alert_ids, insertion order
}

// New creates an empty in-memory alert store.
func New() correlator.Store {
	return &memStore{
		logger: logging.GetLogger("alertstore"),
		byID:   make(map[string]models.Alert),
		byKey:  make(map[string][]string),
	}
}

func (s *memStore) FindActiveByKey(correlationKey string, windowStartUTC time.Time) (models.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byKey[correlationKey]
	var best models.Alert
	found := false
	for _, id := range ids {
		a := s.byID[id]
		if a.LastSeenUTC.Before(windowStartUTC) {
			continue
		}
		if !found || a.LastSeenUTC.After(best.LastSeenUTC) {
			best = a
			found = true
		}
	}
	return best, found
}

func (s *memStore) Upsert(alert models.Alert) error {
	if err := alert.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[alert.AlertID]; !exists {
		s.byKey[alert.CorrelationKey] = append(s.byKey[alert.CorrelationKey], alert.AlertID)
	}
	s.byID[alert.AlertID] = alert
	s.logger.Debug("upserted alert %s (%s) key=%s", alert.AlertID, alert.CorrelationAction, alert.CorrelationKey)
	return nil
}

// List returns every alert, sorted by alert_id, for read-model queries.
func (s *memStore) List() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Alert, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AlertID < out[j].AlertID })
	return out
}

// Lister is the narrow read surface the brief builder needs beyond
// correlator.Store's write-path contract.
type Lister interface {
	List() []models.Alert
}

var _ Lister = (*memStore)(nil)
