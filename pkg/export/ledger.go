package export

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
)

// LedgerFileName is the per-export-directory record of already exported
// activity IDs. It is advisory: the actual dedup check is file existence,
// the ledger feeds external filtering.
const LedgerFileName = "downloaded_ids.json"

type idsFile struct {
	IDs []string `json:"ids"`
}

// UpdateDownloadLedger adds an activity ID to the ledger, keeping the list
// sorted and free of duplicates. Malformed ledger content is treated as
// empty, never fatal.
func UpdateDownloadLedger(dir, activityID string) error {
	path := filepath.Join(dir, LedgerFileName)

	var ledger idsFile
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &ledger); err != nil {
			slog.Warn("Ledger content is not valid, starting over", "path", path, "error", err)
			ledger = idsFile{}
		}
	}

	if slices.Contains(ledger.IDs, activityID) {
		slog.Info("Activity already in ledger", "id", activityID, "path", path)
		return nil
	}
	ledger.IDs = append(ledger.IDs, activityID)
	slices.Sort(ledger.IDs)

	data, err := json.Marshal(ledger)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadExclude loads the exclusion file, a JSON object of the same
// {"ids": [...]} shape as the ledger. A missing or malformed file emits a
// diagnostic and disables exclusion by returning an empty set.
func ReadExclude(path string) map[string]bool {
	exclude := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Cannot read exclusion file, nothing will be excluded", "path", path, "error", err)
		return exclude
	}
	var parsed idsFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		slog.Warn("No valid JSON in exclusion file, nothing will be excluded", "path", path, "error", err)
		return exclude
	}
	for _, id := range parsed.IDs {
		exclude[id] = true
	}
	return exclude
}
