// Package impact measures how an event changed a branch's sales on the day it was held.
//
// The event day is compared with three baselines: the month average over days without
// events, the average of the month's other days on the same weekday, and the analogous
// weekday of the previous month. ROI is measured against the month baseline only.
package impact

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"backoffice-mcp/internal/ledger"
)

// DayFigures are the event day's own numbers.
type DayFigures struct {
	Date          ledger.Day      `json:"date"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TicketCount   int             `json:"ticket_count"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	Recorded      bool            `json:"recorded"`
}

func figuresOf(date ledger.Day, obs *ledger.Observation) DayFigures {
	if obs == nil {
		return DayFigures{Date: date, TotalSales: decimal.Zero, AverageTicket: decimal.Zero}
	}
	return DayFigures{
		Date:          date,
		TotalSales:    obs.TotalSales,
		TicketCount:   obs.TicketCount,
		AverageTicket: obs.AverageTicket(),
		Recorded:      true,
	}
}

// Analysis is the full result for one event.
type Analysis struct {
	Event              ledger.Event   `json:"event"`
	WeekdayOrdinal     int            `json:"weekday_ordinal"`
	Observed           DayFigures     `json:"observed"`
	BaselineMonth      Baseline       `json:"baseline_month"`
	BaselineWeekday    Baseline       `json:"baseline_weekday"`
	BaselinePriorMonth Baseline       `json:"baseline_prior_month"`
	Comparisons        []Comparison   `json:"comparisons"`
	ROI                ROI            `json:"roi"`
	Limits             ProcessLimits  `json:"process_limits"`
	Recommendation     Recommendation `json:"recommendation"`
	Thresholds         Thresholds     `json:"thresholds"`
	Warnings           []string       `json:"warnings,omitempty"`

	// MonthSeries holds the recorded days of the event's month, for charting.
	MonthSeries []ledger.Observation `json:"-"`
}

// Comparison returns the comparison against the given baseline.
func (a *Analysis) Comparison(kind BaselineKind) Comparison {
	for _, c := range a.Comparisons {
		if c.Baseline == kind {
			return c
		}
	}
	return Comparison{Baseline: kind}
}

// Baselines returns the three baselines in presentation order.
func (a *Analysis) Baselines() []Baseline {
	return []Baseline{a.BaselineMonth, a.BaselineWeekday, a.BaselinePriorMonth}
}

// Analyzer runs event analyses against a ledger. It holds no per-call state.
type Analyzer struct {
	source     ledger.Source
	thresholds Thresholds
}

// NewAnalyzer creates an analyzer reading from src.
func NewAnalyzer(src ledger.Source, thresholds Thresholds) *Analyzer {
	return &Analyzer{source: src, thresholds: thresholds}
}

// Thresholds returns the thresholds used for recommendations.
func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// AnalyzeByID loads the event and analyzes it. Unknown ids yield ledger.ErrNotFound.
func (a *Analyzer) AnalyzeByID(ctx context.Context, id string) (*Analysis, error) {
	event, err := a.source.Event(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, err
		}
		return nil, unavailable("event lookup", err)
	}
	return a.Analyze(ctx, *event)
}

// Analyze compares the event day with the three baselines. The ledger reads run
// concurrently; if any of them fails the whole call fails with ErrDataSourceUnavailable.
func (a *Analyzer) Analyze(ctx context.Context, event ledger.Event) (*Analysis, error) {
	if event.BranchID == "" || event.Date.IsZero() {
		return nil, fmt.Errorf("%w: event must have a branch and a date", ledger.ErrInvalidEvent)
	}

	first, last := MonthBounds(event.Date)
	priorDate, priorOK := PriorMonthSameOrdinal(event.Date)

	var (
		observed    *ledger.Observation
		month       []ledger.Observation
		monthEvents []ledger.Event
		prior       *ledger.Observation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		obs, err := a.source.TradingDay(gctx, event.BranchID, event.Date)
		if err != nil {
			return unavailable("event day", err)
		}
		observed = obs
		return nil
	})
	g.Go(func() error {
		days, err := a.source.TradingDays(gctx, event.BranchID, first, last)
		if err != nil {
			return unavailable("month days", err)
		}
		month = days
		return nil
	})
	g.Go(func() error {
		events, err := a.source.Events(gctx, event.BranchID, first, last)
		if err != nil {
			return unavailable("month events", err)
		}
		monthEvents = events
		return nil
	})
	if priorOK {
		g.Go(func() error {
			obs, err := a.source.TradingDay(gctx, event.BranchID, priorDate)
			if err != nil {
				return unavailable("prior month day", err)
			}
			prior = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Str("event", event.ID).Msg("Event analysis aborted")
		return nil, err
	}

	res := &Analysis{
		Event:              event,
		WeekdayOrdinal:     WeekdayOrdinal(event.Date),
		Observed:           figuresOf(event.Date, observed),
		BaselineMonth:      MonthBaseline(event, month, monthEvents),
		BaselineWeekday:    WeekdayBaseline(event, month),
		BaselinePriorMonth: PriorMonthBaseline(priorDate, priorOK, prior),
		Thresholds:         a.thresholds,
		MonthSeries:        month,
	}

	if !res.Observed.Recorded {
		res.Warnings = append(res.Warnings, fmt.Sprintf("no sales recorded for the event day %s; treated as zero", event.Date))
	} else if res.Observed.TicketCount == 0 {
		res.Warnings = append(res.Warnings, "the event day has zero tickets; average ticket is 0")
	}
	for _, b := range res.Baselines() {
		switch {
		case b.NotApplicable:
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: the prior month has no %s occurrence of this weekday", b.Kind, ordinalWord(res.WeekdayOrdinal)))
		case b.Missing():
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: no comparable days recorded", b.Kind))
		}
	}

	for _, b := range res.Baselines() {
		res.Comparisons = append(res.Comparisons, Compare(res.Observed, b))
	}
	res.Limits = LimitsOf(monthSample(res.BaselineMonth, month), res.Observed.TotalSales.InexactFloat64())

	roi, err := ComputeROI(res.Observed, res.BaselineMonth, event.TotalCost())
	if err != nil && !undefinedROI(err) {
		return nil, err
	}
	if err != nil {
		res.Warnings = append(res.Warnings, "roi: "+err.Error())
	}
	res.ROI = roi
	res.Recommendation = a.thresholds.Classify(res.Comparison(BaselineMonth).DeltaSalesPct, roi)

	log.Debug().
		Str("event", event.ID).
		Str("branch", event.BranchID).
		Str("date", event.Date.String()).
		Str("verdict", string(res.Recommendation.Verdict)).
		Int("warnings", len(res.Warnings)).
		Msg("Event analysis complete")
	return res, nil
}

func ordinalWord(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}
