package scoring

// Pinned subscore thresholds. spec.md's Open Questions flag these as
// "chosen to reproduce observed fixture values" and suggests they should
// be parameterized in config if tuning is ever required — until then they
// are named constants, not config-driven (see SPEC_FULL.md's
// Open-Questions decisions).
const (
	CriticalFacilityThreshold = 8 // +2 if any linked facility >= this
	ModerateFacilityThreshold = 5 // +1 if any linked facility >= this (and < critical)
	HighVolumeLaneThreshold   = 7 // +1 if any linked lane volume_score >= this

	PriorityShipmentWindowHours = 48
	PriorityShipmentCapDelta    = 2

	ETAProximityWindowHours = 48
)
