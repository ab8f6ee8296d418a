// Package domain defines the data model shared across the presence-sync
// service: calendar search payloads produced by the directory backend,
// the derived leave/recurrence values, and the persistence models for
// reconciliation runs.
package domain

import "time"

// Timestamp wraps an ISO 8601 timestamp as delivered by the calendar
// backend. The raw string is kept verbatim because it is persisted
// unchanged in derived leave entries.
type Timestamp struct {
	ISO8601 string `json:"iso8601"`
}

// Time parses the wrapped timestamp. Malformed values yield the zero
// time rather than an error; the calendar backend owns this data and a
// bad timestamp should not fail the whole user (see DESIGN.md).
func (t Timestamp) Time() time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, t.ISO8601); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// ByDay names a single weekday inside a recurrence rule, using the
// two-letter iCalendar codes MO..SU.
type ByDay struct {
	Day string `json:"day"`
}

// RRule is the recurrence rule attached to a weekly recurring event.
// Until is absent for rules that recur indefinitely.
type RRule struct {
	ByDay []ByDay    `json:"byDay"`
	Until *Timestamp `json:"until,omitempty"`
}

// EventMain carries the scheduling core of a calendar event.
type EventMain struct {
	DtStart Timestamp `json:"dtstart"`
	DtEnd   Timestamp `json:"dtend"`
	RRule   *RRule    `json:"rrule,omitempty"`
}

// EventValue nests the main component the way the calendar search API
// returns it.
type EventValue struct {
	Main EventMain `json:"main"`
}

// CalendarEvent is one result row of a calendar search. Events are
// matched by their display name prefix: "TTO" marks an approved leave
// block, "TTR" a weekly recurring remote-day pattern.
type CalendarEvent struct {
	DisplayName string     `json:"displayName"`
	Value       EventValue `json:"value"`
}

// LeaveEntry is one approved leave block derived from a TTO event.
// From keeps the raw dtstart string; Days is the ceiling-rounded day
// count of the block.
type LeaveEntry struct {
	From string `json:"from"`
	Days int    `json:"days"`
}

// DateBound is one edge of a calendar search window, date-precise.
type DateBound struct {
	Precision string `json:"precision"`
	ISO8601   string `json:"iso8601"`
}

// DateWindow scopes a calendar search to a date range.
type DateWindow struct {
	DateMin DateBound `json:"dateMin"`
	DateMax DateBound `json:"dateMax"`
}
