package impact

import (
	"math"
	"slices"

	"backoffice-mcp/internal/ledger"
)

// MinLimitSample is the fewest baseline days for which process limits are computed.
const MinLimitSample = 5

// Position tells where the event day's sales fall against the natural process limits.
type Position string

const (
	PositionAbove        Position = "above_upper_limit"
	PositionWithin       Position = "within_limits"
	PositionBelow        Position = "below_lower_limit"
	PositionInsufficient Position = "insufficient_data"
)

// ProcessLimits are the natural process limits (Individuals and Moving Range chart) of the
// daily sales in the month baseline. An event day above the upper limit shows a lift that
// routine day-to-day variation does not explain.
type ProcessLimits struct {
	SampleSize int      `json:"sample_size"`
	Average    float64  `json:"average"`
	Median     float64  `json:"median"`
	AmR        float64  `json:"average_moving_range"`
	UNPL       float64  `json:"upper_natural_process_limit"`
	LNPL       float64  `json:"lower_natural_process_limit"`
	EventSales float64  `json:"event_day_sales"`
	Position   Position `json:"position"`
}

// LimitsOf computes the limits over days (taken in date order) and places eventSales.
func LimitsOf(days []ledger.Observation, eventSales float64) ProcessLimits {
	res := ProcessLimits{SampleSize: len(days), EventSales: round2(eventSales), Position: PositionInsufficient}
	if len(days) < MinLimitSample {
		return res
	}

	values := make([]float64, len(days))
	sum := 0.0
	for i, d := range days {
		values[i] = d.TotalSales.InexactFloat64()
		sum += values[i]
	}
	avg := sum / float64(len(values))

	mrSum := 0.0
	for i := 0; i < len(values)-1; i++ {
		mrSum += math.Abs(values[i+1] - values[i])
	}
	amr := mrSum / float64(len(values)-1)

	// Wheeler's scaling constant for Individuals charts
	unpl := avg + 2.66*amr
	lnpl := math.Max(0, avg-2.66*amr)

	res.Average = round2(avg)
	res.Median = round2(median(values))
	res.AmR = round2(amr)
	res.UNPL = round2(unpl)
	res.LNPL = round2(lnpl)

	switch {
	case eventSales > unpl:
		res.Position = PositionAbove
	case eventSales < lnpl:
		res.Position = PositionBelow
	default:
		res.Position = PositionWithin
	}
	return res
}

// monthSample returns the month days that contributed to b, in date order.
func monthSample(b Baseline, month []ledger.Observation) []ledger.Observation {
	in := make(map[string]bool, len(b.SampleDates))
	for _, d := range b.SampleDates {
		in[d.String()] = true
	}
	var sample []ledger.Observation
	for _, o := range month {
		if in[o.Date.String()] {
			sample = append(sample, o)
		}
	}
	slices.SortFunc(sample, func(x, y ledger.Observation) int { return x.Date.Compare(y.Date.Time) })
	return sample
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	temp := slices.Clone(values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return temp[n/2]
	}
	return (temp[n/2-1] + temp[n/2]) / 2.0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
