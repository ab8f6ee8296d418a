package leave

import (
	"fmt"
	"time"

	"github.com/presencelab/go-presence-sync/internal/domain"
)

// YearWindow returns the date boundaries of the calendar year containing
// now, evaluated in UTC. Using UTC avoids off-by-one-year windows when
// the process runs near midnight on December 31 in a non-UTC zone.
//
// The window is consumed as the date-range filter of a calendar search:
// the current calendar year, not a rolling 365-day span.
func YearWindow(now time.Time) domain.DateWindow {
	year := now.UTC().Year()
	return domain.DateWindow{
		DateMin: domain.DateBound{Precision: "Date", ISO8601: fmt.Sprintf("%04d-01-01", year)},
		DateMax: domain.DateBound{Precision: "Date", ISO8601: fmt.Sprintf("%04d-12-31", year)},
	}
}
