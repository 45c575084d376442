package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"backoffice-mcp/internal/impact"
	"backoffice-mcp/internal/ledger"
	"backoffice-mcp/internal/visuals"
)

func (s *Server) handleAnalyzeEvent(ctx context.Context, in AnalyzeEventInput) (interface{}, error) {
	var (
		analysis *impact.Analysis
		err      error
	)

	if id := strings.TrimSpace(in.EventID); id != "" {
		analysis, err = s.analyzer.AnalyzeByID(ctx, id)
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("event %s not found: use 'list_events' to find valid IDs", id)
		}
	} else {
		if strings.TrimSpace(in.BranchID) == "" {
			return nil, fmt.Errorf("either event_id or branch_id and date are required")
		}
		date, perr := parseDay("date", in.Date)
		if perr != nil {
			return nil, perr
		}
		cachet, sound, cerr := costs(in.CachetCost, in.SoundCost)
		if cerr != nil {
			return nil, cerr
		}
		artist := strings.TrimSpace(in.Artist)
		if artist == "" {
			artist = "ad-hoc event"
		}
		analysis, err = s.analyzer.Analyze(ctx, ledger.Event{
			BranchID:   strings.TrimSpace(in.BranchID),
			Date:       date,
			Artist:     artist,
			CachetCost: cachet,
			SoundCost:  sound,
		})
	}
	if err != nil {
		return nil, err
	}

	res := map[string]interface{}{
		"analysis": analysis,
		"summary":  s.format.Summarize(analysis),
	}
	if s.opts.EnableMermaidCharts {
		res["visual_baselines_bar"] = visuals.GenerateBaselineChart(analysis)
		res["visual_month_run"] = visuals.GenerateMonthRunChart(analysis)
		if pie := visuals.GenerateCostCoveragePie(analysis); pie != "" {
			res["visual_cost_coverage"] = pie
		}
	}

	guidance := []string{
		"Deltas with defined=false had no reference value (empty or zero baseline). Report them as N/A, never as 0%.",
		"ROI is measured against the month baseline only. The weekday and prior-month comparisons are context for the lift, not for the cost.",
		fmt.Sprintf("The recommendation uses a strong-lift threshold of %s%% and a break-even ROI of %s%%.",
			analysis.Thresholds.StrongSalesLiftPct.String(), analysis.Thresholds.BreakEvenROIPct.String()),
	}
	if analysis.BaselinePriorMonth.NotApplicable {
		guidance = append(guidance, "The prior month has no matching weekday ordinal, so that comparison is not applicable rather than missing data.")
	}

	return WrapResponse(res, analysis.Warnings, guidance), nil
}

func (s *Server) handleListEvents(ctx context.Context, in BranchRangeInput) (interface{}, error) {
	branchID := strings.TrimSpace(in.BranchID)
	if branchID == "" {
		return nil, fmt.Errorf("branch_id is required")
	}
	from, to, err := s.resolveRange(in.From, in.To)
	if err != nil {
		return nil, err
	}

	events, err := s.store.Events(ctx, branchID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", impact.ErrDataSourceUnavailable, err)
	}

	rows := make([]map[string]interface{}, 0, len(events))
	for _, e := range events {
		rows = append(rows, eventView(e, s.format.Currency(e.TotalCost())))
	}

	res := map[string]interface{}{
		"branch_id": branchID,
		"from":      from,
		"to":        to,
		"count":     len(rows),
		"events":    rows,
	}

	var guidance []string
	if len(rows) == 0 {
		guidance = append(guidance, "No events in this range. Widen 'from'/'to' or register one with 'register_event'.")
	} else {
		guidance = append(guidance, "Call 'analyze_event' with an event 'id' to measure its impact.")
	}
	return WrapResponse(res, nil, guidance), nil
}

func (s *Server) handleGetEvent(ctx context.Context, in EventIDInput) (interface{}, error) {
	id := strings.TrimSpace(in.EventID)
	if id == "" {
		return nil, fmt.Errorf("event_id is required")
	}
	e, err := s.store.Event(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("event %s not found", id)
		}
		return nil, fmt.Errorf("%w: %w", impact.ErrDataSourceUnavailable, err)
	}
	return WrapResponse(eventView(*e, s.format.Currency(e.TotalCost())), nil, nil), nil
}

func (s *Server) handleRegisterEvent(ctx context.Context, in RegisterEventInput) (interface{}, error) {
	date, err := parseDay("date", in.Date)
	if err != nil {
		return nil, err
	}
	cachet, sound, err := costs(in.CachetCost, in.SoundCost)
	if err != nil {
		return nil, err
	}
	e := ledger.Event{
		BranchID:   in.BranchID,
		Date:       date,
		Artist:     in.Artist,
		CachetCost: cachet,
		SoundCost:  sound,
		Notes:      in.Notes,
	}
	if err := s.store.CreateEvent(ctx, &e); err != nil {
		return nil, err
	}
	log.Info().Str("id", e.ID).Str("branch", e.BranchID).Str("date", e.Date.String()).Msg("Registered event")

	var warnings []string
	if !e.TotalCost().IsPositive() {
		warnings = append(warnings, "The event has no cost, so its ROI will be undefined.")
	}
	if date.After(ledger.NewDay(s.now()).Time) {
		warnings = append(warnings, "The event is in the future; its analysis will report missing sales until the day is closed.")
	}

	guidance := []string{fmt.Sprintf("Call 'analyze_event' with event_id %q once the day's sales are recorded.", e.ID)}
	return WrapResponse(eventView(e, s.format.Currency(e.TotalCost())), warnings, guidance), nil
}

func (s *Server) handleGetTradingDays(ctx context.Context, in BranchRangeInput) (interface{}, error) {
	branchID := strings.TrimSpace(in.BranchID)
	if branchID == "" {
		return nil, fmt.Errorf("branch_id is required")
	}
	from, to, err := s.resolveRange(in.From, in.To)
	if err != nil {
		return nil, err
	}

	days, err := s.store.TradingDays(ctx, branchID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", impact.ErrDataSourceUnavailable, err)
	}

	total := decimal.Zero
	tickets := 0
	rows := make([]map[string]interface{}, 0, len(days))
	for _, d := range days {
		total = total.Add(d.TotalSales)
		tickets += d.TicketCount
		rows = append(rows, map[string]interface{}{
			"date":           d.Date,
			"weekday":        d.Date.Weekday().String(),
			"total_sales":    d.TotalSales,
			"ticket_count":   d.TicketCount,
			"average_ticket": d.AverageTicket(),
		})
	}

	res := map[string]interface{}{
		"branch_id":     branchID,
		"from":          from,
		"to":            to,
		"days_recorded": len(rows),
		"total_sales":   s.format.Currency(total),
		"total_tickets": s.format.Count(tickets),
		"trading_days":  rows,
	}

	var warnings []string
	if len(rows) == 0 {
		warnings = append(warnings, "No sales recorded for this branch in the range.")
	}
	return WrapResponse(res, warnings, nil), nil
}

func (s *Server) handleLocateComparableDay(_ context.Context, in DateInput) (interface{}, error) {
	date, err := parseDay("date", in.Date)
	if err != nil {
		return nil, err
	}

	ordinal := impact.WeekdayOrdinal(date)
	first, last := impact.MonthBounds(date)
	res := map[string]interface{}{
		"date":            date,
		"weekday":         date.Weekday().String(),
		"weekday_ordinal": ordinal,
		"month":           impact.MonthLabel(date),
		"month_first_day": first,
		"month_last_day":  last,
	}

	var guidance []string
	if prior, ok := impact.PriorMonthSameOrdinal(date); ok {
		res["prior_month_date"] = prior
		res["prior_month_applicable"] = true
	} else {
		res["prior_month_date"] = nil
		res["prior_month_applicable"] = false
		guidance = append(guidance, fmt.Sprintf("The previous month has no %s with ordinal %d, so there is no prior-month comparable day.", date.Weekday(), ordinal))
	}
	return WrapResponse(res, nil, guidance), nil
}

func eventView(e ledger.Event, totalCost string) map[string]interface{} {
	return map[string]interface{}{
		"id":              e.ID,
		"branch_id":       e.BranchID,
		"date":            e.Date,
		"weekday":         e.Date.Weekday().String(),
		"artist":          e.Artist,
		"cachet_cost":     e.CachetCost,
		"sound_cost":      e.SoundCost,
		"total_cost":      e.TotalCost(),
		"total_cost_text": totalCost,
		"notes":           e.Notes,
	}
}
