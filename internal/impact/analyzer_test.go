package impact

import (
	"context"
	"errors"
	"sync"
	"testing"

	"backoffice-mcp/internal/ledger"
)

func newLedger(t *testing.T) *ledger.FileStore {
	t.Helper()
	store := ledger.NewFileStore(t.TempDir())
	store.AppendSales([]ledger.SalesEntry{
		// November 2024: 2024-11-08 is the 2nd Friday
		{BranchID: "1", Date: day("2024-11-08"), TotalSales: dec("110000"), TicketCount: 100},
		// December 2024
		{BranchID: "1", Date: day("2024-12-02"), TotalSales: dec("100000"), TicketCount: 100},
		{BranchID: "1", Date: day("2024-12-06"), TotalSales: dec("80000"), TicketCount: 80},
		{BranchID: "1", Date: day("2024-12-13"), Shift: "am", TotalSales: dec("60000"), TicketCount: 50},
		{BranchID: "1", Date: day("2024-12-13"), Shift: "pm", TotalSales: dec("90000"), TicketCount: 70},
		{BranchID: "1", Date: day("2024-12-18"), TotalSales: dec("120000"), TicketCount: 100},
		{BranchID: "1", Date: day("2024-12-20"), TotalSales: dec("100000"), TicketCount: 100},
		{BranchID: "1", Date: day("2024-12-27"), TotalSales: dec("300000"), TicketCount: 200}, // another event
		{BranchID: "2", Date: day("2024-12-13"), TotalSales: dec("1"), TicketCount: 1},
	})
	store.AppendEvents([]ledger.Event{
		{ID: "ev-13", BranchID: "1", Date: day("2024-12-13"), Artist: "Trio", CachetCost: dec("20000"), SoundCost: dec("10000")},
		{ID: "ev-27", BranchID: "1", Date: day("2024-12-27"), Artist: "Band", CachetCost: dec("50000")},
		{ID: "free", BranchID: "1", Date: day("2024-12-13"), Artist: "Open mic"},
	})
	return store
}

func TestAnalyzer_Analyze(t *testing.T) {
	a := NewAnalyzer(newLedger(t), DefaultThresholds())

	res, err := a.AnalyzeByID(context.Background(), "ev-13")
	if err != nil {
		t.Fatalf("AnalyzeByID failed: %v", err)
	}

	if !res.Observed.Recorded || !res.Observed.TotalSales.Equal(dec("150000")) || res.Observed.TicketCount != 120 {
		t.Errorf("Unexpected observed figures: %+v", res.Observed)
	}
	if res.WeekdayOrdinal != 2 {
		t.Errorf("WeekdayOrdinal = %d, want 2", res.WeekdayOrdinal)
	}

	// Month: 02, 06, 18, 20 (13 and 27 hold events) -> 400000 / 4
	if res.BaselineMonth.SampleSize != 4 || !res.BaselineMonth.AverageSales.Equal(dec("100000")) {
		t.Errorf("Month baseline = %d days / %s, want 4 / 100000", res.BaselineMonth.SampleSize, res.BaselineMonth.AverageSales)
	}
	// Fridays other than the 13th: 06, 20, 27 -> 480000 / 3
	if res.BaselineWeekday.SampleSize != 3 || !res.BaselineWeekday.AverageSales.Equal(dec("160000")) {
		t.Errorf("Weekday baseline = %d days / %s, want 3 / 160000", res.BaselineWeekday.SampleSize, res.BaselineWeekday.AverageSales)
	}
	if res.BaselinePriorMonth.SampleSize != 1 || res.BaselinePriorMonth.ReferenceDate.String() != "2024-11-08" {
		t.Errorf("Prior month baseline = %+v", res.BaselinePriorMonth)
	}

	if !res.ROI.Defined || !res.ROI.IncrementalSales.Equal(dec("50000")) || !res.ROI.Pct.Equal(dec("66.67")) {
		t.Errorf("ROI = %+v, want 50000 incremental and 66.67%%", res.ROI)
	}
	if res.Recommendation.Verdict != VerdictRepeat {
		t.Errorf("Verdict = %s, want %s", res.Recommendation.Verdict, VerdictRepeat)
	}

	if len(res.Comparisons) != 3 {
		t.Fatalf("Expected 3 comparisons, got %d", len(res.Comparisons))
	}
	if c := res.Comparison(BaselineMonth); !c.DeltaSalesPct.Value.Equal(dec("50")) {
		t.Errorf("Month sales delta = %s, want 50", c.DeltaSalesPct.Value)
	}
	if c := res.Comparison(BaselineWeekday); !c.DeltaSalesPct.Value.Equal(dec("-6.25")) {
		t.Errorf("Weekday sales delta = %s, want -6.25", c.DeltaSalesPct.Value)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", res.Warnings)
	}
}

func TestAnalyzer_NoCostEvent(t *testing.T) {
	a := NewAnalyzer(newLedger(t), DefaultThresholds())

	res, err := a.AnalyzeByID(context.Background(), "free")
	if err != nil {
		t.Fatalf("AnalyzeByID failed: %v", err)
	}
	if res.ROI.Defined {
		t.Error("Expected ROI to be undefined for an event without cost")
	}
	if res.ROI.Reason != ErrUndefinedROI.Error() {
		t.Errorf("Reason = %q", res.ROI.Reason)
	}
	if res.Recommendation.Verdict != VerdictNoCostFavorable {
		t.Errorf("Verdict = %s, want %s", res.Recommendation.Verdict, VerdictNoCostFavorable)
	}
}

func TestAnalyzer_MissingDataIsReported(t *testing.T) {
	store := ledger.NewFileStore(t.TempDir())
	a := NewAnalyzer(store, DefaultThresholds())

	// 2025-01-31 is a 5th Friday; nothing recorded anywhere.
	res, err := a.Analyze(context.Background(), ledger.Event{ID: "x", BranchID: "1", Date: day("2025-01-31"), CachetCost: dec("1000")})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if res.Observed.Recorded || !res.Observed.TotalSales.IsZero() {
		t.Errorf("Expected a zero, unrecorded event day, got %+v", res.Observed)
	}
	if !res.BaselinePriorMonth.NotApplicable {
		t.Error("Expected prior month baseline to be not applicable")
	}
	for _, c := range res.Comparisons {
		if c.DeltaSalesPct.Defined || c.DeltaTicketsPct.Defined || c.DeltaAvgTicketPct.Defined {
			t.Errorf("Expected undefined deltas against %s", c.Baseline)
		}
	}
	if res.ROI.Defined || res.Recommendation.Verdict != VerdictInconclusive {
		t.Errorf("Expected undefined ROI and inconclusive verdict, got %+v / %s", res.ROI, res.Recommendation.Verdict)
	}
	// event day, month, weekday, prior month, roi
	if len(res.Warnings) != 5 {
		t.Errorf("Expected 5 warnings, got %d: %v", len(res.Warnings), res.Warnings)
	}
}

func TestAnalyzer_ZeroTicketEventDay(t *testing.T) {
	store := newLedger(t)
	store.AppendSales([]ledger.SalesEntry{{BranchID: "3", Date: day("2024-12-06"), TotalSales: dec("0"), TicketCount: 0}})
	store.AppendSales([]ledger.SalesEntry{{BranchID: "3", Date: day("2024-12-05"), TotalSales: dec("1000"), TicketCount: 10}})
	a := NewAnalyzer(store, DefaultThresholds())

	res, err := a.Analyze(context.Background(), ledger.Event{ID: "z", BranchID: "3", Date: day("2024-12-06"), CachetCost: dec("100")})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !res.Observed.AverageTicket.IsZero() {
		t.Errorf("AverageTicket = %s, want 0", res.Observed.AverageTicket)
	}
	c := res.Comparison(BaselineMonth)
	if !c.DeltaAvgTicketPct.Defined || !c.DeltaAvgTicketPct.Value.Equal(dec("-100")) {
		t.Errorf("DeltaAvgTicketPct = %+v, want -100", c.DeltaAvgTicketPct)
	}
}

func TestAnalyzer_UnknownEvent(t *testing.T) {
	a := NewAnalyzer(newLedger(t), DefaultThresholds())
	if _, err := a.AnalyzeByID(context.Background(), "nope"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// flakySource fails one kind of read.
type flakySource struct {
	*ledger.FileStore
	failOn string

	mu    sync.Mutex
	calls int
}

var errBackend = errors.New("connection refused")

func (f *flakySource) count() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *flakySource) TradingDays(ctx context.Context, b string, from, to ledger.Day) ([]ledger.Observation, error) {
	f.count()
	if f.failOn == "days" {
		return nil, errBackend
	}
	return f.FileStore.TradingDays(ctx, b, from, to)
}

func (f *flakySource) Events(ctx context.Context, b string, from, to ledger.Day) ([]ledger.Event, error) {
	f.count()
	if f.failOn == "events" {
		return nil, errBackend
	}
	return f.FileStore.Events(ctx, b, from, to)
}

func (f *flakySource) Event(ctx context.Context, id string) (*ledger.Event, error) {
	f.count()
	if f.failOn == "event" {
		return nil, errBackend
	}
	return f.FileStore.Event(ctx, id)
}

func TestAnalyzer_DataSourceFailureAbortsTheCall(t *testing.T) {
	for _, failOn := range []string{"days", "events", "event"} {
		t.Run(failOn, func(t *testing.T) {
			src := &flakySource{FileStore: newLedger(t), failOn: failOn}
			a := NewAnalyzer(src, DefaultThresholds())

			res, err := a.AnalyzeByID(context.Background(), "ev-13")
			if res != nil {
				t.Error("Expected no partial result")
			}
			if !errors.Is(err, ErrDataSourceUnavailable) {
				t.Errorf("Expected ErrDataSourceUnavailable, got %v", err)
			}
			if !errors.Is(err, errBackend) {
				t.Errorf("Expected the backend error to be wrapped, got %v", err)
			}
		})
	}
}

func TestAnalyzer_RejectsIncompleteEvent(t *testing.T) {
	a := NewAnalyzer(ledger.NewFileStore(t.TempDir()), DefaultThresholds())
	tests := []struct {
		name  string
		event ledger.Event
	}{
		{"no date", ledger.Event{BranchID: "1"}},
		{"no branch", ledger.Event{Date: ledger.MustParseDay("2024-12-13")}},
	}
	for _, tt := range tests {
		if _, err := a.Analyze(context.Background(), tt.event); !errors.Is(err, ledger.ErrInvalidEvent) {
			t.Errorf("%s: Analyze() error = %v, want ErrInvalidEvent", tt.name, err)
		}
	}
}
