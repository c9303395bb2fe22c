package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/hardstop/hardstop/internal/models"
	"github.com/hardstop/hardstop/internal/rawstore"
	"github.com/hardstop/hardstop/internal/suppression"
)

// SuppressionFile is the unmarshalled shape of the suppression registry
// file: a global, enable-gated, ordered rule list.
type SuppressionFile struct {
	SchemaVersion string             `yaml:"schema_version"`
	Enabled       bool               `yaml:"enabled"`
	Rules         []SuppressRuleSpec `yaml:"rules"`
}

// LoadSuppressionFile loads and unmarshals the suppression registry from
// path. As with LoadSourcesFile, parse failures are fatal
// *models.ConfigParseError.
func LoadSuppressionFile(path string) (*SuppressionFile, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, models.NewConfigParseError(path, "failed to load suppression registry: %v", err)
	}

	var f SuppressionFile
	if err := k.UnmarshalWithConf("", &f, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, models.NewConfigParseError(path, "failed to parse suppression registry: %v", err)
	}

	if f.SchemaVersion != "" {
		if err := rawstore.CheckSchemaVersion(f.SchemaVersion); err != nil {
			return nil, models.NewConfigParseError(path, "suppression registry: %v", err)
		}
	}

	return &f, nil
}

// BuildRegistry compiles the global suppression rules (when enabled)
// together with each source's inline local rules into a ready-to-
// evaluate suppression.Registry. Per spec.md §7, compile failures are
// *models.SuppressionLoadError and are fatal at load time only.
func BuildRegistry(sf *SuppressionFile, sources []ResolvedSource) (*suppression.Registry, error) {
	var global []suppression.Rule
	if sf != nil && sf.Enabled {
		global = toRules(sf.Rules)
	}

	perSource := make(map[string][]suppression.Rule, len(sources))
	for _, s := range sources {
		if len(s.Suppress) > 0 {
			perSource[s.ID] = toRules(s.Suppress)
		}
	}

	return suppression.Compile(global, perSource)
}

func toRules(specs []SuppressRuleSpec) []suppression.Rule {
	out := make([]suppression.Rule, len(specs))
	for i, s := range specs {
		out[i] = suppression.Rule{
			ID:            s.ID,
			Kind:          suppression.RuleKind(s.Kind),
			Field:         suppression.RuleField(s.Field),
			Pattern:       s.Pattern,
			CaseSensitive: s.CaseSensitive,
			ReasonCode:    s.ReasonCode,
		}
	}
	return out
}
