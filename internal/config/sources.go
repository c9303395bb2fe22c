// Package config loads and merges the sources and suppression registries
// (spec.md §6) via koanf, resolving tier defaults and per-source
// overrides into the snapshot the provenance kernel fingerprints.
//
// Grounded on moolen-spectre/internal/config/integration_loader.go's
// koanf.New(".") -> file.Provider -> yaml.Parser -> UnmarshalWithConf ->
// Validate() pipeline, generalized from a single instances list to the
// tiered sources registry.
package config

import (
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/hardstop/hardstop/internal/models"
	"github.com/hardstop/hardstop/internal/rawstore"
)

// SuppressRuleSpec is one source-local suppression rule, declared inline
// under a source's "suppress" list.
type SuppressRuleSpec struct {
	ID            string `yaml:"id"`
	Kind          string `yaml:"kind"`
	Field         string `yaml:"field"`
	Pattern       string `yaml:"pattern"`
	CaseSensitive bool   `yaml:"case_sensitive"`
	ReasonCode    string `yaml:"reason_code"`
}

// TierDefaults is the optional set of modifier defaults folded in for
// every source of a given tier, before per-source overrides.
type TierDefaults struct {
	TrustTier           *int `yaml:"trust_tier"`
	ClassificationFloor *int `yaml:"classification_floor"`
	WeightingBias       *int `yaml:"weighting_bias"`
}

// SourceSpec is one source as declared in the registry file.
type SourceSpec struct {
	ID       string             `yaml:"id"`
	Type     string             `yaml:"type"`
	URL      string             `yaml:"url"`
	Enabled  bool               `yaml:"enabled"`
	Tags     []string           `yaml:"tags"`
	Suppress []SuppressRuleSpec `yaml:"suppress"`

	TrustTier           *int `yaml:"trust_tier"`
	ClassificationFloor *int `yaml:"classification_floor"`
	WeightingBias       *int `yaml:"weighting_bias"`
}

// Tiers buckets declared sources by network tier.
type Tiers struct {
	Global   []SourceSpec `yaml:"global"`
	Regional []SourceSpec `yaml:"regional"`
	Local    []SourceSpec `yaml:"local"`
}

// SourcesFile is the unmarshalled shape of the sources registry file.
type SourcesFile struct {
	SchemaVersion string                  `yaml:"schema_version"`
	Tiers         Tiers                   `yaml:"tiers"`
	Defaults      TierDefaults            `yaml:"defaults"`
	TierDefaults  map[string]TierDefaults `yaml:"tier_defaults"`
}

// ResolvedSource is one source after tier_defaults/defaults/per-source
// override folding: per-source wins over tier_defaults wins over
// defaults.
type ResolvedSource struct {
	ID                  string
	Type                string
	URL                 string
	Enabled             bool
	Tags                []string
	Tier                models.Tier
	TrustTier           models.TrustTier
	ClassificationFloor int
	WeightingBias       int
	Suppress            []SuppressRuleSpec
}

// LoadSourcesFile loads and unmarshals the sources registry from path.
// Parse and unmarshal failures are wrapped as *models.ConfigParseError,
// per spec.md §7's "fatal to the run (exit 2)".
func LoadSourcesFile(path string) (*SourcesFile, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, models.NewConfigParseError(path, "failed to load sources registry: %v", err)
	}

	var f SourcesFile
	if err := k.UnmarshalWithConf("", &f, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, models.NewConfigParseError(path, "failed to parse sources registry: %v", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks structural invariants across all three tiers: unique
// ids, required id/type, and in-range modifier values wherever declared.
// SchemaVersion, when set, is checked against the raw-item store's
// migration registry using semver ordering (a naive string compare would
// misorder "v10" before "v9").
func (f *SourcesFile) Validate() error {
	if f.SchemaVersion != "" {
		if err := rawstore.CheckSchemaVersion(f.SchemaVersion); err != nil {
			return models.NewConfigParseError("", "sources registry: %v", err)
		}
	}

	seen := make(map[string]bool)
	for tierName, specs := range f.tiersByName() {
		for _, s := range specs {
			if s.ID == "" {
				return models.NewConfigParseError("", "tier %q: source with empty id", tierName)
			}
			if seen[s.ID] {
				return models.NewConfigParseError("", "duplicate source id %q", s.ID)
			}
			seen[s.ID] = true

			if s.Type == "" {
				return models.NewConfigParseError("", "source %q: type is required", s.ID)
			}
			if err := validateModifiers(s.ID, s.TrustTier, s.ClassificationFloor, s.WeightingBias); err != nil {
				return err
			}
		}
	}
	for tierName, td := range f.TierDefaults {
		if err := validateModifiers("tier_defaults."+tierName, td.TrustTier, td.ClassificationFloor, td.WeightingBias); err != nil {
			return err
		}
	}
	return validateModifiers("defaults", f.Defaults.TrustTier, f.Defaults.ClassificationFloor, f.Defaults.WeightingBias)
}

func validateModifiers(who string, trustTier, classificationFloor, weightingBias *int) error {
	if trustTier != nil && (*trustTier < 1 || *trustTier > 3) {
		return models.NewConfigParseError("", "%s: trust_tier %d out of range [1,3]", who, *trustTier)
	}
	if classificationFloor != nil && (*classificationFloor < 0 || *classificationFloor > 2) {
		return models.NewConfigParseError("", "%s: classification_floor %d out of range [0,2]", who, *classificationFloor)
	}
	if weightingBias != nil && (*weightingBias < -2 || *weightingBias > 2) {
		return models.NewConfigParseError("", "%s: weighting_bias %d out of range [-2,2]", who, *weightingBias)
	}
	return nil
}

func (f *SourcesFile) tiersByName() map[string][]SourceSpec {
	return map[string][]SourceSpec{
		"global":   f.Tiers.Global,
		"regional": f.Tiers.Regional,
		"local":    f.Tiers.Local,
	}
}

// Resolve folds defaults, tier_defaults, and per-source overrides into a
// flat, sorted-by-id list of ResolvedSource. Per-source values win over
// tier_defaults, which win over defaults.
func (f *SourcesFile) Resolve() []ResolvedSource {
	var out []ResolvedSource
	for tierName, specs := range f.tiersByName() {
		tier := models.Tier(tierName)
		td := f.TierDefaults[tierName]
		for _, s := range specs {
			out = append(out, ResolvedSource{
				ID:                  s.ID,
				Type:                s.Type,
				URL:                 s.URL,
				Enabled:             s.Enabled,
				Tags:                s.Tags,
				Tier:                tier,
				TrustTier:           models.TrustTier(fold(s.TrustTier, td.TrustTier, f.Defaults.TrustTier, 2)),
				ClassificationFloor: fold(s.ClassificationFloor, td.ClassificationFloor, f.Defaults.ClassificationFloor, 0),
				WeightingBias:       fold(s.WeightingBias, td.WeightingBias, f.Defaults.WeightingBias, 0),
				Suppress:            s.Suppress,
			})
		}
	}
	sortResolvedSources(out)
	return out
}

// fold returns the first non-nil of perSource, tierDefault, default, else
// fallback.
func fold(perSource, tierDefault, deflt *int, fallback int) int {
	switch {
	case perSource != nil:
		return *perSource
	case tierDefault != nil:
		return *tierDefault
	case deflt != nil:
		return *deflt
	default:
		return fallback
	}
}

func sortResolvedSources(sources []ResolvedSource) {
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
}
