// Package rawstore implements the raw-item store + deduper (spec.md
// §4.B): idempotent persistence of fetched payloads keyed by canonical id
// and content hash.
//
// Grounded on moolen-spectre/internal/storage/storage.go's file-scoped
// mutex and get-or-create idiom, adapted from hourly-file indexing to
// (source_id, canonical_id)/content_hash indexing. The teacher's own
// storage layer is a hand-rolled in-process store with no SQL/KV driver,
// which spec.md explicitly allows ("only the repository contract
// matters") — this package follows that precedent rather than pulling in
// an embedded database dependency.
package rawstore

import (
	"sort"
	"sync"
	"time"

	"github.com/hardstop/hardstop/internal/logging"
	"github.com/hardstop/hardstop/internal/models"
)

// SaveResult reports whether save() created a new row or found a
// pre-existing duplicate.
type SaveResult string

const (
	ResultCreated  SaveResult = "CREATED"
	ResultDuplicate SaveResult = "DUPLICATE"
)

// Store is the raw-item store + deduper contract. Implementations must
// uphold: canonical_id unique per source_id, content_hash unique
// globally, and a RawItem cannot exit NEW without transitioning to
// NORMALIZED (optionally SUPPRESSED) or FAILED.
type Store interface {
	// Save persists item idempotently. Lookup order: first by
	// (source_id, canonical_id), then by content_hash. On duplicate, no
	// write occurs and the existing row's id is returned.
	Save(item *models.RawItem) (SaveResult, string, error)

	// ListForIngest returns items fetched at or after since, in stable
	// (fetched_at_utc, raw_item_id) ascending order. Suppressed items are
	// excluded unless includeSuppressed is true.
	ListForIngest(since time.Time, includeSuppressed bool) ([]*models.RawItem, error)

	// MarkSuppressed stamps suppression metadata on an existing row and
	// transitions its status, leaving the underlying content untouched.
	MarkSuppressed(rawItemID string, primaryRule string, ruleIDs []string, reasonCode string, stage models.SuppressionStage, suppressedAt time.Time) error

	// MarkNormalized transitions a NEW item to NORMALIZED without a
	// suppression stamp.
	MarkNormalized(rawItemID string) error

	// MarkFailed transitions a NEW item to FAILED.
	MarkFailed(rawItemID string) error

	// Get returns a single RawItem by id.
	Get(rawItemID string) (*models.RawItem, bool)
}

// memStore is the default in-memory/in-process Store implementation.
type memStore struct {
	mu     sync.RWMutex
	logger *logging.Logger

	byID          map[string]*models.RawItem
	bySourceCanon map[string]string // "source_id\x00canonical_id" -> raw_item_id
	byContentHash map[string]string // content_hash -> raw_item_id
}

// New creates an empty in-memory raw-item store.
func New() Store {
	return &memStore{
		logger:        logging.GetLogger("rawstore"),
		byID:          make(map[string]*models.RawItem),
		bySourceCanon: make(map[string]string),
		byContentHash: make(map[string]string),
	}
}

func sourceCanonKey(sourceID, canonicalID string) string {
	return sourceID + "\x00" + canonicalID
}

func (s *memStore) Save(item *models.RawItem) (SaveResult, string, error) {
	if err := item.Validate(); err != nil {
		return "", "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item.CanonicalID != "" {
		key := sourceCanonKey(item.SourceID, item.CanonicalID)
		if existingID, ok := s.bySourceCanon[key]; ok {
			s.logger.Debug("duplicate raw item by (source_id,canonical_id): %s", key)
			return ResultDuplicate, existingID, nil
		}
	}
	if item.ContentHash != "" {
		if existingID, ok := s.byContentHash[item.ContentHash]; ok {
			s.logger.Debug("duplicate raw item by content_hash: %s", item.ContentHash)
			return ResultDuplicate, existingID, nil
		}
	}

	cp := *item
	if cp.Status == "" {
		cp.Status = models.RawItemNew
	}
	s.byID[cp.RawItemID] = &cp
	if cp.CanonicalID != "" {
		s.bySourceCanon[sourceCanonKey(cp.SourceID, cp.CanonicalID)] = cp.RawItemID
	}
	if cp.ContentHash != "" {
		s.byContentHash[cp.ContentHash] = cp.RawItemID
	}
	s.logger.Debug("created raw item %s for source %s", cp.RawItemID, cp.SourceID)
	return ResultCreated, cp.RawItemID, nil
}

func (s *memStore) ListForIngest(since time.Time, includeSuppressed bool) ([]*models.RawItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.RawItem, 0, len(s.byID))
	for _, item := range s.byID {
		if item.FetchedAtUTC.Before(since) {
			continue
		}
		if !includeSuppressed && item.Suppression.Suppressed {
			continue
		}
		cp := *item
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FetchedAtUTC.Equal(out[j].FetchedAtUTC) {
			return out[i].FetchedAtUTC.Before(out[j].FetchedAtUTC)
		}
		return out[i].RawItemID < out[j].RawItemID
	})
	return out, nil
}

func (s *memStore) MarkSuppressed(rawItemID string, primaryRule string, ruleIDs []string, reasonCode string, stage models.SuppressionStage, suppressedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.byID[rawItemID]
	if !ok {
		return models.NewValidationError("raw item %s not found", rawItemID)
	}
	item.Status = models.RawItemNormalized
	item.Suppression = models.SuppressionMeta{
		Suppressed:      true,
		PrimaryRuleID:   primaryRule,
		AllRuleIDs:      append([]string(nil), ruleIDs...),
		ReasonCode:      reasonCode,
		Stage:           stage,
		SuppressedAtUTC: suppressedAt.UTC(),
	}
	return nil
}

func (s *memStore) MarkNormalized(rawItemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.byID[rawItemID]
	if !ok {
		return models.NewValidationError("raw item %s not found", rawItemID)
	}
	item.Status = models.RawItemNormalized
	return nil
}

func (s *memStore) MarkFailed(rawItemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.byID[rawItemID]
	if !ok {
		return models.NewValidationError("raw item %s not found", rawItemID)
	}
	item.Status = models.RawItemFailed
	return nil
}

func (s *memStore) Get(rawItemID string) (*models.RawItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.byID[rawItemID]
	if !ok {
		return nil, false
	}
	cp := *item
	return &cp, true
}
