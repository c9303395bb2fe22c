package rawstore

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-version"
)

// Migration describes one additive, idempotent schema change, per
// SPEC_FULL.md's migration-registry design note: replace ad-hoc "ensure
// column" helpers with a numbered, append-only list. SchemaVersion is
// the semver tag a config file's declared schema_version is checked
// against; Version is the plain apply-order sequence number.
type Migration struct {
	Version       int
	SchemaVersion string
	Description   string
	Apply         func(s Store) error
}

// Migrations is the ordered, append-only registry for this store.
// Dropping a column is forbidden; a later migration that needs to retire
// a field instead stops writing to it and leaves it nullable.
var Migrations = []Migration{
	{
		Version:       1,
		SchemaVersion: "v1",
		Description:   "initial raw_items schema (implicit in the in-memory store's struct shape)",
		Apply:         func(s Store) error { return nil },
	},
}

// CurrentSchemaVersion returns the highest version in the registry.
func CurrentSchemaVersion() int {
	v := 0
	for _, m := range Migrations {
		if m.Version > v {
			v = m.Version
		}
	}
	return v
}

// CurrentSchemaVersionString returns the highest SchemaVersion in the
// registry under semver ordering (so "v10" correctly sorts after "v9",
// unlike a lexicographic string compare).
func CurrentSchemaVersionString() string {
	highest := Migrations[0].SchemaVersion
	highestV, err := version.NewVersion(highest)
	if err != nil {
		return highest
	}
	for _, m := range Migrations[1:] {
		v, err := version.NewVersion(m.SchemaVersion)
		if err != nil {
			continue
		}
		if v.GreaterThan(highestV) {
			highest, highestV = m.SchemaVersion, v
		}
	}
	return highest
}

// CheckSchemaVersion reports a *models.SchemaDriftError-worthy condition
// as a plain error if declared (a config file's schema_version) names a
// version this build's migration registry has never reached. Older
// declared versions are accepted; ApplyMigrations brings the store
// forward.
func CheckSchemaVersion(declared string) error {
	declaredV, err := version.NewVersion(declared)
	if err != nil {
		return fmt.Errorf("invalid schema_version %q: %w", declared, err)
	}
	currentV, err := version.NewVersion(CurrentSchemaVersionString())
	if err != nil {
		return fmt.Errorf("invalid registry schema version %q: %w", CurrentSchemaVersionString(), err)
	}
	if declaredV.GreaterThan(currentV) {
		return fmt.Errorf("schema_version %q is newer than the highest supported version %q", declared, CurrentSchemaVersionString())
	}
	return nil
}

// ApplyMigrations runs every migration in order against s. Each Apply
// must be safe to run multiple times (idempotent).
func ApplyMigrations(s Store) error {
	ordered := append([]Migration(nil), Migrations...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })
	for _, m := range ordered {
		if err := m.Apply(s); err != nil {
			return err
		}
	}
	return nil
}
