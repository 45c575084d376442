package impact

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ROI is the return of the event's incremental sales over its direct cost, measured
// against the month baseline.
type ROI struct {
	IncrementalSales decimal.Decimal `json:"incremental_sales"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	Pct              decimal.Decimal `json:"roi_pct"`
	Defined          bool            `json:"defined"`
	Reason           string          `json:"reason,omitempty"`
}

// ComputeROI returns (incremental - cost) / cost * 100 where incremental is the observed
// sales above the month average. It fails with ErrUndefinedROI when cost is not positive
// and with ErrMissingBaseline when the month baseline has no days. The returned ROI is
// populated in every case, with Defined false and Reason set on failure.
func ComputeROI(observed DayFigures, month Baseline, cost decimal.Decimal) (ROI, error) {
	r := ROI{
		IncrementalSales: observed.TotalSales.Sub(month.AverageSales),
		TotalCost:        cost,
		Pct:              decimal.Zero,
	}

	if !cost.IsPositive() {
		r.Reason = ErrUndefinedROI.Error()
		return r, ErrUndefinedROI
	}
	if month.Missing() {
		r.IncrementalSales = decimal.Zero
		r.Reason = ErrMissingBaseline.Error()
		return r, ErrMissingBaseline
	}

	r.Pct = r.IncrementalSales.Sub(cost).Div(cost).Mul(hundred).Round(2)
	r.Defined = true
	return r, nil
}

// undefinedROI reports whether err is one of the expected "ROI not computable" outcomes.
func undefinedROI(err error) bool {
	return errors.Is(err, ErrUndefinedROI) || errors.Is(err, ErrMissingBaseline)
}
