package format

import (
	"fmt"

	"github.com/shopspring/decimal"

	"backoffice-mcp/internal/impact"
)

// Summary is the human-readable digest of an analysis.
type Summary struct {
	Event         string        `json:"event"`
	ObservedSales string        `json:"observed_sales"`
	Tickets       string        `json:"tickets"`
	AverageTicket string        `json:"average_ticket"`
	Lines         []SummaryLine `json:"vs_baselines"`
	TotalCost     string        `json:"total_cost"`
	Incremental   string        `json:"incremental_sales"`
	ROI           string        `json:"roi"`
	ProcessSignal string        `json:"process_signal"`
	Verdict       string        `json:"verdict"`
	Message       string        `json:"message"`
}

// SummaryLine is the event day against one baseline.
type SummaryLine struct {
	Baseline      string `json:"baseline"`
	Reference     string `json:"reference_sales"`
	Sales         string `json:"sales"`
	Tickets       string `json:"tickets"`
	AverageTicket string `json:"average_ticket"`
}

// Summarize renders the headline figures of an analysis.
func (f *Formatter) Summarize(a *impact.Analysis) Summary {
	s := Summary{
		Event:         fmt.Sprintf("%s at branch %s on %s", a.Event.Artist, a.Event.BranchID, a.Event.Date),
		ObservedSales: f.Currency(a.Observed.TotalSales),
		Tickets:       f.Count(a.Observed.TicketCount),
		AverageTicket: f.Currency(a.Observed.AverageTicket),
		TotalCost:     f.Currency(a.ROI.TotalCost),
		Incremental:   NotAvailable,
		ROI:           f.ROI(a.ROI),
		Verdict:       string(a.Recommendation.Verdict),
		Message:       a.Recommendation.Message,
	}
	if a.ROI.Defined {
		s.Incremental = f.Currency(a.ROI.IncrementalSales)
	}
	s.ProcessSignal = f.processSignal(a.Limits)

	for _, b := range a.Baselines() {
		c := a.Comparison(b.Kind)
		ref := NotAvailable
		if !b.Missing() {
			ref = f.Currency(b.AverageSales)
		}
		s.Lines = append(s.Lines, SummaryLine{
			Baseline:      BaselineLabel(b.Kind),
			Reference:     ref,
			Sales:         f.Percent(c.DeltaSalesPct),
			Tickets:       f.Percent(c.DeltaTicketsPct),
			AverageTicket: f.Percent(c.DeltaAvgTicketPct),
		})
	}
	return s
}

func (f *Formatter) processSignal(l impact.ProcessLimits) string {
	upper := f.Currency(decimal.NewFromFloat(l.UNPL))
	lower := f.Currency(decimal.NewFromFloat(l.LNPL))
	switch l.Position {
	case impact.PositionAbove:
		return fmt.Sprintf("Above the month's upper natural process limit (%s): the lift exceeds routine variation.", upper)
	case impact.PositionBelow:
		return fmt.Sprintf("Below the month's lower natural process limit (%s).", lower)
	case impact.PositionWithin:
		return fmt.Sprintf("Within the month's routine variation (%s to %s).", lower, upper)
	default:
		return fmt.Sprintf("Fewer than %d baseline days; no process limits.", impact.MinLimitSample)
	}
}
