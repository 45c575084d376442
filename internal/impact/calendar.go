package impact

import (
	"time"

	"backoffice-mcp/internal/ledger"
)

// WeekdayOrdinal returns which occurrence of its weekday the date is within its month (1 to 5).
func WeekdayOrdinal(d ledger.Day) int {
	return (d.Day()-1)/7 + 1
}

// PriorMonthSameOrdinal finds the same occurrence of the same weekday in the previous
// month, e.g. the 2nd Friday of December for the 2nd Friday of January. The second
// return value is false when that month has no such occurrence (a 5th Sunday, say).
func PriorMonthSameOrdinal(d ledger.Day) (ledger.Day, bool) {
	ordinal := WeekdayOrdinal(d)

	year, month := d.Year(), d.Month()-1
	if month < time.January {
		month = time.December
		year--
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) - int(first.Weekday()) + 7) % 7
	candidate := first.AddDate(0, 0, offset+7*(ordinal-1))
	if candidate.Month() != month {
		return ledger.Day{}, false
	}
	return ledger.NewDay(candidate), true
}

// MonthBounds returns the first and last calendar day of d's month.
func MonthBounds(d ledger.Day) (first, last ledger.Day) {
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return ledger.Day{Time: start}, ledger.Day{Time: end}
}

// DateOnly drops the time of day of t, keeping the calendar date it shows.
func DateOnly(t time.Time) ledger.Day {
	return ledger.NewDay(t)
}

// MonthLabel renders d's month as YYYY-MM.
func MonthLabel(d ledger.Day) string {
	return d.Format("2006-01")
}
