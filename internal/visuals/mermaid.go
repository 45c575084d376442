package visuals

import (
	"fmt"
	"math"
	"strings"

	"backoffice-mcp/internal/format"
	"backoffice-mcp/internal/impact"
)

// GenerateBaselineChart creates a Mermaid bar chart of the event day's sales next to each baseline.
// Baselines without data are drawn as zero.
func GenerateBaselineChart(a *impact.Analysis) string {
	if a == nil {
		return ""
	}

	labels := []string{"\"Event day\""}
	values := []string{fmt.Sprintf("%.0f", a.Observed.TotalSales.InexactFloat64())}
	maxVal := a.Observed.TotalSales.InexactFloat64()

	for _, b := range a.Baselines() {
		labels = append(labels, fmt.Sprintf("\"%s\"", shortLabel(b.Kind)))
		v := b.AverageSales.InexactFloat64()
		values = append(values, fmt.Sprintf("%.0f", v))
		if v > maxVal {
			maxVal = v
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Event Day vs Baselines (%s)\"\n", a.Event.Date))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Sales\" 0 --> %d\n", yCeiling(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateMonthRunChart creates a Mermaid line chart of the month's daily sales with the
// month baseline as a flat reference line. The upper natural process limit is drawn as a
// third line when the month had enough days to compute it.
func GenerateMonthRunChart(a *impact.Analysis) string {
	if a == nil || len(a.MonthSeries) == 0 {
		return ""
	}

	var labels []string
	var values []string
	var averages []string

	avg := fmt.Sprintf("%.0f", a.BaselineMonth.AverageSales.InexactFloat64())
	maxVal := a.BaselineMonth.AverageSales.InexactFloat64()

	hasLimits := a.Limits.Position != "" && a.Limits.Position != impact.PositionInsufficient
	var uppers []string
	if hasLimits {
		maxVal = math.Max(maxVal, a.Limits.UNPL)
	}

	for _, o := range a.MonthSeries {
		label := o.Date.Format("02")
		if o.Date.Equal(a.Event.Date) {
			label += "*"
		}
		v := o.TotalSales.InexactFloat64()
		labels = append(labels, fmt.Sprintf("\"%s\"", label))
		values = append(values, fmt.Sprintf("%.0f", v))
		averages = append(averages, avg)
		if hasLimits {
			uppers = append(uppers, fmt.Sprintf("%.0f", a.Limits.UNPL))
		}
		if v > maxVal {
			maxVal = v
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Daily Sales %s (* = event)\"\n", impact.MonthLabel(a.Event.Date)))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Sales\" 0 --> %d\n", yCeiling(maxVal)))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(averages, ", ")))
	if hasLimits {
		sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(uppers, ", ")))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateCostCoveragePie creates a Mermaid pie chart splitting the event's incremental sales
// into the part that paid the cost and the surplus (or the uncovered cost).
func GenerateCostCoveragePie(a *impact.Analysis) string {
	if a == nil || !a.ROI.Defined {
		return ""
	}
	incremental := math.Max(0, a.ROI.IncrementalSales.InexactFloat64())
	cost := a.ROI.TotalCost.InexactFloat64()

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Cost Coverage\n")
	if incremental >= cost {
		sb.WriteString(fmt.Sprintf("    \"Cost covered\" : %.0f\n", cost))
		sb.WriteString(fmt.Sprintf("    \"Surplus\" : %.0f\n", incremental-cost))
	} else {
		sb.WriteString(fmt.Sprintf("    \"Cost covered\" : %.0f\n", incremental))
		sb.WriteString(fmt.Sprintf("    \"Uncovered cost\" : %.0f\n", cost-incremental))
	}
	sb.WriteString("```")
	return sb.String()
}

func shortLabel(kind impact.BaselineKind) string {
	switch kind {
	case impact.BaselineMonth:
		return "Month avg"
	case impact.BaselineWeekday:
		return "Same weekday"
	case impact.BaselinePriorMonth:
		return "Prior month"
	default:
		return format.BaselineLabel(kind)
	}
}

// yCeiling leaves 10% headroom above the tallest value.
func yCeiling(maxVal float64) int {
	if maxVal <= 0 {
		return 1
	}
	return int(math.Ceil(maxVal * 1.1))
}
