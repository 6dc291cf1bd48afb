// Package backup serializes the three collections into the versioned
// snapshot used for manual export and import. Import replaces collections
// wholesale; it is never a merge.
package backup

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/skcglow/glowpos/pkg/models"
)

// ErrMalformedBackup is returned when the payload is not a snapshot: one of
// catalog, sales or customers is missing or is not an array. No partial
// import occurs.
var ErrMalformedBackup = errors.New("malformed backup: catalog, sales and customers must all be arrays")

// Export builds a snapshot of the given collections stamped with the current
// time.
func Export(c models.Collections) models.Snapshot {
	return models.Snapshot{
		Version:    models.SnapshotVersion,
		ExportedAt: time.Now().UTC(),
		Data:       c.Clone(),
	}
}

// EncodeSnapshot renders a snapshot as the backup file format.
func EncodeSnapshot(s models.Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Import parses raw backup bytes. It accepts either a full snapshot or a
// bare {catalog, sales, customers} object and succeeds only if all three
// fields are present and are arrays; empty arrays are valid.
func Import(raw []byte) (models.Collections, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return models.Collections{}, ErrMalformedBackup
	}

	// A full snapshot nests the collections under "data".
	if data, ok := envelope["data"]; ok {
		inner := map[string]json.RawMessage{}
		if err := json.Unmarshal(data, &inner); err != nil {
			return models.Collections{}, ErrMalformedBackup
		}
		envelope = inner
	}

	var c models.Collections
	if err := decodeArray(envelope, "catalog", &c.Catalog); err != nil {
		return models.Collections{}, err
	}
	if err := decodeArray(envelope, "sales", &c.Sales); err != nil {
		return models.Collections{}, err
	}
	if err := decodeArray(envelope, "customers", &c.Customers); err != nil {
		return models.Collections{}, err
	}
	return c, nil
}

// decodeArray enforces that the field exists and is a JSON array before
// decoding it, so "null" and scalar values are rejected rather than
// silently treated as empty.
func decodeArray(envelope map[string]json.RawMessage, key string, dst any) error {
	raw, ok := envelope[key]
	if !ok {
		return ErrMalformedBackup
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ErrMalformedBackup
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return ErrMalformedBackup
	}
	return nil
}
