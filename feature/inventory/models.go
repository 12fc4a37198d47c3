package inventory

import (
	"encoding/json"
	"strings"
	"time"
)

// Item is one spreadsheet row. Fields keeps the row's cells keyed by
// header name; Key is the normalized correlation key, empty when the
// row has none.
type Item struct {
	ID     int
	Row    int
	Fields map[string]any
	Key    string
}

// MarshalJSON flattens an item into a single object so clients see the
// spreadsheet columns alongside the synthetic id and row number.
func (it Item) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(it.Fields)+2)
	for k, v := range it.Fields {
		flat[k] = v
	}
	flat["id"] = it.ID
	flat["row"] = it.Row
	return json.Marshal(flat)
}

// Metadata describes the upload a snapshot came from.
type Metadata struct {
	FileName   string    `json:"fileName"`
	UploadDate time.Time `json:"uploadDate"`
	TotalItems int       `json:"totalItems"`
	Columns    []string  `json:"columns"`
}

// NormalizeKey canonicalizes an identifier for matching: surrounding
// whitespace stripped, letters uppercased.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// DetectKeyColumn picks the correlation column from the sheet headers.
// An exact case-insensitive match of marker wins; otherwise the first
// header containing it. Empty result means per-row detection.
func DetectKeyColumn(headers []string, marker string) string {
	marker = strings.ToLower(strings.TrimSpace(marker))
	if marker == "" {
		return ""
	}
	for _, h := range headers {
		if strings.ToLower(strings.TrimSpace(h)) == marker {
			return h
		}
	}
	for _, h := range headers {
		if strings.Contains(strings.ToLower(h), marker) {
			return h
		}
	}
	return ""
}

// keyOf resolves an item's correlation key. The detected column is
// preferred; rows missing it fall back to scanning their own field
// names for the marker.
func keyOf(fields map[string]any, keyColumn, marker string) string {
	if keyColumn != "" {
		if v, ok := fields[keyColumn]; ok {
			if k := NormalizeKey(cellString(v)); k != "" {
				return k
			}
		}
	}
	marker = strings.ToLower(marker)
	if marker == "" {
		return ""
	}
	for name, v := range fields {
		if strings.Contains(strings.ToLower(name), marker) {
			if k := NormalizeKey(cellString(v)); k != "" {
				return k
			}
		}
	}
	return ""
}
