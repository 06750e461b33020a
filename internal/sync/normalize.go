// Package sync implements the batched upsert synchronization engine:
// page-at-a-time reconciliation of external records against relational
// state, with sales-rep resolution and contact-permission reconciliation.
package sync

import "strings"

// DefaultSentinels are the string values treated as semantically null in
// incoming records, compared case-insensitively after trimming whitespace.
// The empty string covers whitespace-only values as well.
var DefaultSentinels = []string{"", "null", "na", "n/a"}

// Normalize returns a new slice of new records in which every field whose
// value matches a sentinel (or is already nil) is replaced with nil. All
// other values pass through unchanged. Records are never reordered,
// dropped, or mutated in place.
func Normalize(records []map[string]any, sentinels []string) []map[string]any {
	set := make(map[string]struct{}, len(sentinels))
	for _, s := range sentinels {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	out := make([]map[string]any, len(records))
	for i, rec := range records {
		clean := make(map[string]any, len(rec))
		for field, value := range rec {
			if isSentinel(value, set) {
				clean[field] = nil
			} else {
				clean[field] = value
			}
		}
		out[i] = clean
	}
	return out
}

func isSentinel(value any, set map[string]struct{}) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	_, hit := set[strings.ToLower(strings.TrimSpace(s))]
	return hit
}
