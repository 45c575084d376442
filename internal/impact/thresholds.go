package impact

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Thresholds tune how deltas and ROI are turned into a recommendation.
type Thresholds struct {
	// StrongSalesLiftPct is the sales lift over the month baseline considered a strong result.
	StrongSalesLiftPct decimal.Decimal `json:"strong_sales_lift_pct"`
	// BreakEvenROIPct is the ROI at or above which the event paid for itself.
	BreakEvenROIPct decimal.Decimal `json:"break_even_roi_pct"`
}

// DefaultThresholds returns a 20% strong lift and a 0% break-even ROI.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StrongSalesLiftPct: decimal.NewFromInt(20),
		BreakEvenROIPct:    decimal.Zero,
	}
}

// Verdict is the qualitative outcome of an event analysis.
type Verdict string

const (
	VerdictRepeat              Verdict = "repeat"
	VerdictProfitable          Verdict = "profitable"
	VerdictLiftNotCoveringCost Verdict = "lift_not_covering_cost"
	VerdictDiscontinue         Verdict = "discontinue"
	VerdictNoCostFavorable     Verdict = "no_cost_favorable"
	VerdictNoCostUnfavorable   Verdict = "no_cost_unfavorable"
	VerdictInconclusive        Verdict = "inconclusive"
)

// Recommendation is a verdict plus a sentence explaining it.
type Recommendation struct {
	Verdict Verdict `json:"verdict"`
	Message string  `json:"message"`
}

// Classify turns the sales delta against the month baseline and the ROI into a recommendation.
func (t Thresholds) Classify(salesLift Delta, roi ROI) Recommendation {
	if !salesLift.Defined {
		return Recommendation{
			Verdict: VerdictInconclusive,
			Message: "The month baseline has no comparable days, so the event cannot be judged.",
		}
	}
	lift := salesLift.Value
	strong := lift.GreaterThanOrEqual(t.StrongSalesLiftPct)

	if !roi.Defined {
		if strong {
			return Recommendation{
				Verdict: VerdictNoCostFavorable,
				Message: fmt.Sprintf("Sales rose %s%% over the month baseline with no recorded cost.", lift.StringFixed(2)),
			}
		}
		return Recommendation{
			Verdict: VerdictNoCostUnfavorable,
			Message: fmt.Sprintf("No recorded cost and sales changed %s%%, below the %s%% strong-lift mark.", lift.StringFixed(2), t.StrongSalesLiftPct.String()),
		}
	}

	if roi.Pct.GreaterThanOrEqual(t.BreakEvenROIPct) {
		if strong {
			return Recommendation{
				Verdict: VerdictRepeat,
				Message: fmt.Sprintf("Strong lift (%s%%) and ROI of %s%%: worth repeating.", lift.StringFixed(2), roi.Pct.StringFixed(2)),
			}
		}
		return Recommendation{
			Verdict: VerdictProfitable,
			Message: fmt.Sprintf("The event covered its cost (ROI %s%%) with a moderate lift of %s%%.", roi.Pct.StringFixed(2), lift.StringFixed(2)),
		}
	}

	if lift.IsPositive() {
		return Recommendation{
			Verdict: VerdictLiftNotCoveringCost,
			Message: fmt.Sprintf("Sales rose %s%% but the extra revenue did not cover the cost (ROI %s%%).", lift.StringFixed(2), roi.Pct.StringFixed(2)),
		}
	}
	return Recommendation{
		Verdict: VerdictDiscontinue,
		Message: fmt.Sprintf("No sales lift (%s%%) and ROI of %s%%: do not repeat.", lift.StringFixed(2), roi.Pct.StringFixed(2)),
	}
}
