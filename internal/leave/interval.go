// Package leave implements the pure leave-reconciliation engine: day
// interval math, extraction of approved leave blocks (TTO events) and
// weekly recurring remote-day patterns (TTR events) from calendar
// search results, and the calendar-year window used to scope searches.
//
// Everything in this package is deterministic and free of I/O; the
// reconciliation loop in internal/reconcile drives it per user.
package leave

import (
	"math"
	"time"
)

// day is the fixed-length day used for interval arithmetic. Leaves are
// counted in wall-clock-agnostic 24h units, matching how the calendar
// backend reports block boundaries.
const day = 24 * time.Hour

// DaysBetween returns the ceiling-rounded number of days between start
// and end. A 24h span counts as 1 day, a 36h span as 2. Equal
// timestamps yield 0; a negative span yields a negative count, which
// is passed through rather than clamped (see DESIGN.md).
func DaysBetween(start, end time.Time) int {
	return int(math.Ceil(float64(end.Sub(start)) / float64(day)))
}
