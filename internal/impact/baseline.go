package impact

import (
	"github.com/shopspring/decimal"

	"backoffice-mcp/internal/ledger"
)

// BaselineKind names one of the three reference points an event day is compared with.
type BaselineKind string

const (
	// BaselineMonth is the month average over days without any registered event.
	BaselineMonth BaselineKind = "month_excluding_events"
	// BaselineWeekday is the average of the other days of the month sharing the event's weekday.
	BaselineWeekday BaselineKind = "same_weekday_in_month"
	// BaselinePriorMonth is the single day holding the same weekday ordinal in the previous month.
	BaselinePriorMonth BaselineKind = "prior_month_same_ordinal"
)

// Baseline is a reference average (or single observation) for one comparison.
type Baseline struct {
	Kind               BaselineKind    `json:"kind"`
	AverageSales       decimal.Decimal `json:"average_sales"`
	AverageTickets     decimal.Decimal `json:"average_tickets"`
	AverageTicketValue decimal.Decimal `json:"average_ticket_value"`
	SampleSize         int             `json:"sample_size"`
	SampleDates        []ledger.Day    `json:"sample_dates"`
	ReferenceDate      *ledger.Day     `json:"reference_date,omitempty"`
	NotApplicable      bool            `json:"not_applicable"`
}

// Missing reports whether the baseline has no contributing days.
func (b Baseline) Missing() bool {
	return b.SampleSize == 0
}

// averageOf builds a baseline from the given days. Sales and tickets are averaged
// independently; the average ticket is the ratio of those two averages.
func averageOf(kind BaselineKind, days []ledger.Observation) Baseline {
	b := Baseline{
		Kind:               kind,
		AverageSales:       decimal.Zero,
		AverageTickets:     decimal.Zero,
		AverageTicketValue: decimal.Zero,
		SampleDates:        []ledger.Day{},
	}
	if len(days) == 0 {
		return b
	}

	sales := decimal.Zero
	tickets := decimal.Zero
	for _, d := range days {
		sales = sales.Add(d.TotalSales)
		tickets = tickets.Add(decimal.NewFromInt(int64(d.TicketCount)))
		b.SampleDates = append(b.SampleDates, d.Date)
	}

	n := decimal.NewFromInt(int64(len(days)))
	avgSales := sales.Div(n)
	avgTickets := tickets.Div(n)

	b.SampleSize = len(days)
	b.AverageSales = avgSales.Round(2)
	b.AverageTickets = avgTickets.Round(2)
	if !avgTickets.IsZero() {
		b.AverageTicketValue = avgSales.Div(avgTickets).Round(2)
	}
	return b
}

// MonthBaseline averages the month's recorded days, leaving out every date on which the
// branch held an event. The event's own date is always left out, registered or not.
func MonthBaseline(event ledger.Event, month []ledger.Observation, monthEvents []ledger.Event) Baseline {
	excluded := map[string]bool{event.Date.String(): true}
	for _, e := range monthEvents {
		if e.BranchID == event.BranchID {
			excluded[e.Date.String()] = true
		}
	}

	first, last := MonthBounds(event.Date)
	var sample []ledger.Observation
	for _, o := range month {
		if o.Date.Before(first.Time) || o.Date.After(last.Time) {
			continue
		}
		if excluded[o.Date.String()] {
			continue
		}
		sample = append(sample, o)
	}
	return averageOf(BaselineMonth, sample)
}

// WeekdayBaseline averages the month's other days that fall on the event's weekday.
func WeekdayBaseline(event ledger.Event, month []ledger.Observation) Baseline {
	first, last := MonthBounds(event.Date)
	var sample []ledger.Observation
	for _, o := range month {
		if o.Date.Before(first.Time) || o.Date.After(last.Time) {
			continue
		}
		if o.Date.Weekday() != event.Date.Weekday() || o.Date.Equal(event.Date) {
			continue
		}
		sample = append(sample, o)
	}
	return averageOf(BaselineWeekday, sample)
}

// PriorMonthBaseline wraps the observation of the prior month's analogous day. ref is the
// resolved date (ok false when it does not exist); obs is nil when nothing was recorded.
func PriorMonthBaseline(ref ledger.Day, ok bool, obs *ledger.Observation) Baseline {
	if !ok {
		b := averageOf(BaselinePriorMonth, nil)
		b.NotApplicable = true
		return b
	}
	var sample []ledger.Observation
	if obs != nil {
		sample = append(sample, *obs)
	}
	b := averageOf(BaselinePriorMonth, sample)
	b.ReferenceDate = &ref
	return b
}
