package models

import "time"

// RawItemStatus is the lifecycle state of a RawItem. A RawItem is created
// by fetch and mutated exactly once, by canonicalization: NEW transitions
// to either NORMALIZED (optionally stamped SUPPRESSED) or FAILED. It is
// never deleted.
type RawItemStatus string

const (
	RawItemNew        RawItemStatus = "NEW"
	RawItemNormalized RawItemStatus = "NORMALIZED"
	RawItemFailed     RawItemStatus = "FAILED"
	RawItemSuppressed RawItemStatus = "SUPPRESSED"
)

// TrustTier is a source's reliability grade, 1 (lowest) to 3 (highest).
type TrustTier int

// Tier is a source's geographic/scope classification.
type Tier string

const (
	TierGlobal   Tier = "global"
	TierRegional Tier = "regional"
	TierLocal    Tier = "local"
	TierUnknown  Tier = "unknown"
)

// SuppressionStage records which pipeline stage stamped a suppression.
type SuppressionStage string

const (
	SuppressionStageCanonicalization SuppressionStage = "canonicalization"
)

// SuppressionMeta is the suppression stamp shared by RawItem and Event.
type SuppressionMeta struct {
	Suppressed      bool
	PrimaryRuleID   string
	AllRuleIDs      []string
	ReasonCode      string
	SuppressedAtUTC time.Time
	Stage           SuppressionStage
}

// RawItem is the ingested payload before normalization, exclusively owned
// by the raw-item store.
type RawItem struct {
	RawItemID       string
	SourceID        string
	CanonicalID     string // source-supplied stable id
	ContentHash     string // hash of normalized payload bytes
	Title           string
	Summary         string
	RawText         string
	URL             string
	PublishedAtUTC  time.Time
	FetchedAtUTC    time.Time
	Status          RawItemStatus
	Suppression     SuppressionMeta
	TrustTier       TrustTier
	Tier            Tier
	EventTypeHint   string
}

// Validate checks structural invariants that must hold regardless of
// pipeline stage.
func (r *RawItem) Validate() error {
	if r.RawItemID == "" {
		return NewValidationError("raw_item_id is required")
	}
	if r.SourceID == "" {
		return NewValidationError("source_id is required")
	}
	if r.CanonicalID == "" && r.ContentHash == "" {
		return NewValidationError("raw item %s must have canonical_id or content_hash", r.RawItemID)
	}
	return nil
}
