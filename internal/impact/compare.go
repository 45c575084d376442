package impact

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Delta is a percentage change. When the reference value is zero the change is undefined
// and Value must not be read.
type Delta struct {
	Value   decimal.Decimal `json:"value"`
	Defined bool            `json:"defined"`
}

// MarshalJSON renders undefined deltas with a null value.
func (d Delta) MarshalJSON() ([]byte, error) {
	type wire struct {
		Value   *decimal.Decimal `json:"value"`
		Defined bool             `json:"defined"`
	}
	if !d.Defined {
		return json.Marshal(wire{})
	}
	v := d.Value
	return json.Marshal(wire{Value: &v, Defined: true})
}

// SafePercent computes (observed - baseline) / baseline * 100, rounded to two decimals.
// A zero baseline yields an undefined Delta.
func SafePercent(observed, baseline decimal.Decimal) Delta {
	if baseline.IsZero() {
		return Delta{}
	}
	pct := observed.Sub(baseline).Div(baseline).Mul(hundred).Round(2)
	return Delta{Value: pct, Defined: true}
}

// Comparison holds the event day's deltas against one baseline.
type Comparison struct {
	Baseline          BaselineKind `json:"baseline"`
	SampleSize        int          `json:"sample_size"`
	DeltaSalesPct     Delta        `json:"delta_sales_pct"`
	DeltaTicketsPct   Delta        `json:"delta_tickets_pct"`
	DeltaAvgTicketPct Delta        `json:"delta_avg_ticket_pct"`
}

// Compare applies SafePercent to every metric of the observed day against b.
// A baseline without samples yields undefined deltas across the board.
func Compare(observed DayFigures, b Baseline) Comparison {
	c := Comparison{Baseline: b.Kind, SampleSize: b.SampleSize}
	if b.Missing() {
		return c
	}
	c.DeltaSalesPct = SafePercent(observed.TotalSales, b.AverageSales)
	c.DeltaTicketsPct = SafePercent(decimal.NewFromInt(int64(observed.TicketCount)), b.AverageTickets)
	c.DeltaAvgTicketPct = SafePercent(observed.AverageTicket, b.AverageTicketValue)
	return c
}
