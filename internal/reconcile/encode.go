package reconcile

import (
	"encoding/json"

	"github.com/presencelab/go-presence-sync/internal/domain"
)

// The record store keeps tto and ttr as serialized strings, and change
// detection compares those strings byte for byte against the freshly
// derived values. The exact formats below are therefore part of the
// stored-data contract and must not change without migrating existing
// rows: tto is a 2-space-indented JSON array, ttr a compact one.

// encodeLeave serializes leave entries in the stored tto format.
func encodeLeave(entries []domain.LeaveEntry) string {
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		// []LeaveEntry cannot fail to marshal.
		return "[]"
	}
	return string(b)
}

// encodeDays serializes recurring-day indices in the stored ttr format.
func encodeDays(days []int) string {
	b, err := json.Marshal(days)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// totalDays sums the day counts across leave entries.
func totalDays(entries []domain.LeaveEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Days
	}
	return total
}
