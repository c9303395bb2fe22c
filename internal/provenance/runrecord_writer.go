package provenance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hardstop/hardstop/internal/models"
)

// WriteRunRecords persists one JSON file per RunRecord under
// baseDir/<run_group_id>/<operator_id>.json, per spec.md §6's directory
// contract, with "@" and "/" in the operator id replaced by "_" (see
// sanitizeOperatorID). Each file is written via the temp-file-then-rename pattern so
// a reader never observes a partially written record.
//
// Grounded on moolen-spectre/internal/config/integration_writer.go's
// atomic-write helper, generalized from a single YAML file to one JSON
// file per RunRecord.
func WriteRunRecords(baseDir string, records []*models.RunRecord) error {
	for _, r := range records {
		dir := filepath.Join(baseDir, r.RunGroupID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("run record dir %s: %w", dir, err)
		}
		name := sanitizeOperatorID(r.OperatorID) + ".json"
		if err := writeJSONAtomic(filepath.Join(dir, name), r); err != nil {
			return fmt.Errorf("run record %s/%s: %w", r.RunGroupID, name, err)
		}
	}
	return nil
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".runrecord-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if _, err := os.Stat(tmpPath); err == nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// sanitizeOperatorID replaces every "@" and "/" in an operator id
// ("name@version") with "_" so the result is a plain filename component
// on every platform.
func sanitizeOperatorID(operatorID string) string {
	out := make([]byte, len(operatorID))
	for i := 0; i < len(operatorID); i++ {
		if operatorID[i] == '@' || operatorID[i] == '/' {
			out[i] = '_'
		} else {
			out[i] = operatorID[i]
		}
	}
	return string(out)
}
