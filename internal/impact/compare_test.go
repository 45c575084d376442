package impact

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"backoffice-mcp/internal/ledger"
)

func TestSafePercent(t *testing.T) {
	tests := []struct {
		observed, baseline string
		want               string
		defined            bool
	}{
		{"150000", "100000", "50", true},
		{"80000", "100000", "-20", true},
		{"0", "1500", "-100", true},
		{"100", "300", "-66.67", true},
		{"100", "0", "", false},
		{"0", "0", "", false},
	}

	for _, tt := range tests {
		got := SafePercent(dec(tt.observed), dec(tt.baseline))
		if got.Defined != tt.defined {
			t.Errorf("SafePercent(%s, %s).Defined = %v, want %v", tt.observed, tt.baseline, got.Defined, tt.defined)
			continue
		}
		if tt.defined && !got.Value.Equal(dec(tt.want)) {
			t.Errorf("SafePercent(%s, %s) = %s, want %s", tt.observed, tt.baseline, got.Value, tt.want)
		}
	}
}

func TestDelta_JSON(t *testing.T) {
	out, _ := json.Marshal(Delta{})
	if string(out) != `{"value":null,"defined":false}` {
		t.Errorf("undefined delta = %s", out)
	}
	out, _ = json.Marshal(Delta{Value: dec("12.5"), Defined: true})
	if string(out) != `{"value":"12.5","defined":true}` {
		t.Errorf("defined delta = %s", out)
	}
}

func TestCompare_MissingBaselineFlagsEveryDelta(t *testing.T) {
	observed := DayFigures{TotalSales: dec("1000"), TicketCount: 10, AverageTicket: dec("100")}
	c := Compare(observed, averageOf(BaselineWeekday, nil))

	if c.DeltaSalesPct.Defined || c.DeltaTicketsPct.Defined || c.DeltaAvgTicketPct.Defined {
		t.Errorf("Expected all deltas undefined against an empty baseline, got %+v", c)
	}
}

func TestCompare_ZeroTicketEventDay(t *testing.T) {
	observed := figuresOf(day("2024-12-06"), &ledgerObs0)
	if !observed.AverageTicket.IsZero() {
		t.Fatalf("AverageTicket = %s, want 0", observed.AverageTicket)
	}

	b := averageOf(BaselineMonth, monthSampleObs)
	c := Compare(observed, b)

	if !c.DeltaAvgTicketPct.Defined || !c.DeltaAvgTicketPct.Value.Equal(dec("-100")) {
		t.Errorf("DeltaAvgTicketPct = %+v, want -100", c.DeltaAvgTicketPct)
	}
	if !c.DeltaTicketsPct.Defined || !c.DeltaTicketsPct.Value.Equal(dec("-100")) {
		t.Errorf("DeltaTicketsPct = %+v, want -100", c.DeltaTicketsPct)
	}
	if !c.DeltaSalesPct.Defined || !c.DeltaSalesPct.Value.Equal(dec("-50")) {
		t.Errorf("DeltaSalesPct = %+v, want -50", c.DeltaSalesPct)
	}
}

var ledgerObs0 = obs("2024-12-06", "50000", 0)

var monthSampleObs = []ledger.Observation{obs("2024-12-02", "100000", 100)}

func TestComputeROI(t *testing.T) {
	observed := DayFigures{TotalSales: dec("150000"), TicketCount: 120}
	month := averageOf(BaselineMonth, monthSampleObs)

	roi, err := ComputeROI(observed, month, dec("30000"))
	if err != nil {
		t.Fatalf("ComputeROI failed: %v", err)
	}
	if !roi.IncrementalSales.Equal(dec("50000")) {
		t.Errorf("IncrementalSales = %s, want 50000", roi.IncrementalSales)
	}
	if !roi.Pct.Equal(dec("66.67")) {
		t.Errorf("Pct = %s, want 66.67", roi.Pct)
	}
	if !roi.Defined {
		t.Error("Expected ROI to be defined")
	}
}

func TestComputeROI_Undefined(t *testing.T) {
	observed := DayFigures{TotalSales: dec("150000"), TicketCount: 120}
	month := averageOf(BaselineMonth, monthSampleObs)

	for _, cost := range []string{"0", "-10"} {
		roi, err := ComputeROI(observed, month, dec(cost))
		if !errors.Is(err, ErrUndefinedROI) {
			t.Errorf("cost %s: err = %v, want ErrUndefinedROI", cost, err)
		}
		if roi.Defined || !roi.Pct.IsZero() || !strings.Contains(roi.Reason, "no cost") {
			t.Errorf("cost %s: unexpected ROI %+v", cost, roi)
		}
	}

	roi, err := ComputeROI(observed, averageOf(BaselineMonth, nil), dec("30000"))
	if !errors.Is(err, ErrMissingBaseline) || roi.Defined {
		t.Errorf("empty baseline: got (%+v, %v), want ErrMissingBaseline", roi, err)
	}
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	defined := func(s string) Delta { return Delta{Value: dec(s), Defined: true} }
	roi := func(s string) ROI { return ROI{Pct: dec(s), Defined: true} }
	noROI := ROI{Pct: decimal.Zero}

	tests := []struct {
		name string
		lift Delta
		roi  ROI
		want Verdict
	}{
		{"strong lift and profitable", defined("50"), roi("66.67"), VerdictRepeat},
		{"exactly strong lift, break even", defined("20"), roi("0"), VerdictRepeat},
		{"moderate lift, profitable", defined("10"), roi("5"), VerdictProfitable},
		{"lift but loss", defined("15"), roi("-20"), VerdictLiftNotCoveringCost},
		{"no lift and loss", defined("-5"), roi("-120"), VerdictDiscontinue},
		{"zero lift and loss", defined("0"), roi("-100"), VerdictDiscontinue},
		{"no cost, strong lift", defined("25"), noROI, VerdictNoCostFavorable},
		{"no cost, weak lift", defined("5"), noROI, VerdictNoCostUnfavorable},
		{"no baseline", Delta{}, noROI, VerdictInconclusive},
		{"no baseline with cost", Delta{}, roi("10"), VerdictInconclusive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.Classify(tt.lift, tt.roi)
			if got.Verdict != tt.want {
				t.Errorf("Classify() = %s, want %s", got.Verdict, tt.want)
			}
			if got.Message == "" {
				t.Error("Expected a message")
			}
		})
	}
}

func TestClassify_TunedThresholds(t *testing.T) {
	th := Thresholds{StrongSalesLiftPct: dec("60"), BreakEvenROIPct: dec("10")}

	got := th.Classify(Delta{Value: dec("50"), Defined: true}, ROI{Pct: dec("66.67"), Defined: true})
	if got.Verdict != VerdictProfitable {
		t.Errorf("Classify() = %s, want %s with a 60%% strong-lift mark", got.Verdict, VerdictProfitable)
	}
	got = th.Classify(Delta{Value: dec("50"), Defined: true}, ROI{Pct: dec("5"), Defined: true})
	if got.Verdict != VerdictLiftNotCoveringCost {
		t.Errorf("Classify() = %s, want %s below a 10%% break-even", got.Verdict, VerdictLiftNotCoveringCost)
	}
}
