package leave

import (
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/presencelab/go-presence-sync/internal/domain"
)

// Event display-name prefixes that mark the two kinds of presence
// entries in the shared calendar. Matching is case-insensitive.
const (
	leavePrefix     = "TTO"
	recurringPrefix = "TTR"
)

// weekdayIndex resolves an iCalendar weekday code to its Monday-first
// index (MO=0 .. SU=6), reusing the rrule weekday constants so the
// ordering stays aligned with RFC 5545 semantics.
var weekdayIndex = map[string]int{
	"MO": rrule.MO.Day(),
	"TU": rrule.TU.Day(),
	"WE": rrule.WE.Day(),
	"TH": rrule.TH.Day(),
	"FR": rrule.FR.Day(),
	"SA": rrule.SA.Day(),
	"SU": rrule.SU.Day(),
}

// hasPrefixFold reports whether name starts with prefix, ignoring case.
func hasPrefixFold(name, prefix string) bool {
	return len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix)
}

// ApprovedLeave extracts the approved leave blocks from a calendar
// search result set. Every event whose display name starts with "TTO"
// (any case) yields one entry with the raw dtstart string and the
// ceiling-rounded day count of the block.
//
// Input order is preserved and nothing is dropped: an entry with a
// zero or negative day count is passed through as-is.
func ApprovedLeave(events []domain.CalendarEvent) []domain.LeaveEntry {
	out := make([]domain.LeaveEntry, 0, len(events))
	for _, ev := range events {
		if !hasPrefixFold(ev.DisplayName, leavePrefix) {
			continue
		}
		main := ev.Value.Main
		out = append(out, domain.LeaveEntry{
			From: main.DtStart.ISO8601,
			Days: DaysBetween(main.DtStart.Time(), main.DtEnd.Time()),
		})
	}
	return out
}

// RecurringDays derives the set of weekly recurring remote-day indices
// from a calendar search result set, valid at the given instant.
//
// An event contributes when its display name starts with "TTR" (any
// case), it carries a recurrence rule, it has already started
// (dtstart < now) and it has not ended (no until, or now < until).
// Each byDay weekday then expands into span consecutive indices mod 7,
// where span is the day length of a single occurrence; a two-day block
// anchored on FR covers FR and SA, a three-day block anchored on SA
// wraps around into SU and MO. Unknown weekday codes are skipped.
//
// The returned indices are deduplicated and sorted ascending, so the
// result is deterministic regardless of input ordering.
func RecurringDays(events []domain.CalendarEvent, now time.Time) []int {
	seen := make(map[int]struct{})
	for _, ev := range events {
		if !hasPrefixFold(ev.DisplayName, recurringPrefix) {
			continue
		}
		main := ev.Value.Main
		rule := main.RRule
		if rule == nil {
			continue
		}
		if !main.DtStart.Time().Before(now) {
			continue
		}
		if rule.Until != nil && !now.Before(rule.Until.Time()) {
			continue
		}
		span := DaysBetween(main.DtStart.Time(), main.DtEnd.Time())
		for _, bd := range rule.ByDay {
			first, ok := weekdayIndex[bd.Day]
			if !ok {
				continue
			}
			for k := 0; k < span; k++ {
				seen[(first+k)%7] = struct{}{}
			}
		}
	}

	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
