package domain

// UserRecord is one row of the external record store, field-name
// addressed. The store owns these rows; the reconciler reads the full
// set once per run and writes back only rows whose derived tto/ttr
// changed or whose calendar lookup errored.
//
// TTO and TTR hold serialized JSON, not structures: change detection
// compares the freshly derived serialization against the stored string
// byte for byte, so the serialization format is part of the contract
// (2-space-indented array for tto, compact array for ttr).
type UserRecord struct {
	// ID is the store's row identity, required for patch addressing.
	ID int64 `json:"id"`
	// UID is the stable directory identifier, the join key to the
	// directory service.
	UID string `json:"uid"`
	// Tri is the short, human-facing user code derived from the login.
	Tri     string `json:"tri"`
	Name    string `json:"name,omitempty"`
	Enabled bool   `json:"enabled"`
	Exclude bool   `json:"exclude"`
	// TTO is the 2-space-indented JSON serialization of []LeaveEntry.
	TTO string `json:"tto"`
	// TTR is the compact JSON serialization of the sorted weekday indices.
	TTR   string  `json:"ttr"`
	Total float64 `json:"total"`
	// LastCheck is the RFC 3339 timestamp of the last reconciliation
	// that wrote this row.
	LastCheck string `json:"last-check,omitempty"`
	// Log carries the upstream error message of the last failed
	// calendar lookup, empty otherwise.
	Log string `json:"log,omitempty"`
}

// Profile is the lightweight directory profile used when creating a
// missing user record.
type Profile struct {
	DisplayName string       `json:"displayName"`
	Value       ProfileValue `json:"value"`
}

// ProfileValue nests the login the way the directory API returns it.
type ProfileValue struct {
	Login string `json:"login"`
}
