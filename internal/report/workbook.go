// Package report exports an event analysis as an Excel workbook.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"backoffice-mcp/internal/format"
	"backoffice-mcp/internal/impact"
)

const (
	SummarySheet   = "Summary"
	BaselinesSheet = "Baselines"
)

var baselineHeaders = []string{
	"Baseline", "Reference date", "Sample size", "Sample dates",
	"Avg sales", "Avg tickets", "Avg ticket",
	"Δ sales", "Δ tickets", "Δ avg ticket",
}

// Build creates the workbook for an analysis. Money cells hold numbers; percentage
// cells hold the formatted text so that N/A survives.
func Build(a *impact.Analysis, f *format.Formatter) (*excelize.File, error) {
	wb := excelize.NewFile()
	if err := wb.SetSheetName("Sheet1", SummarySheet); err != nil {
		wb.Close()
		return nil, err
	}
	if _, err := wb.NewSheet(BaselinesSheet); err != nil {
		wb.Close()
		return nil, err
	}

	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		wb.Close()
		return nil, err
	}
	moneyStyle, err := wb.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		wb.Close()
		return nil, err
	}

	writeSummary(wb, a, f, headerStyle, moneyStyle)
	writeBaselines(wb, a, f, headerStyle, moneyStyle)

	wb.SetActiveSheet(0)
	return wb, nil
}

// WriteWorkbook builds the workbook and writes it to w.
func WriteWorkbook(w io.Writer, a *impact.Analysis, f *format.Formatter) error {
	wb, err := Build(a, f)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	defer wb.Close()

	if _, err := wb.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Filename is the suggested download name for an analysis.
func Filename(a *impact.Analysis) string {
	id := a.Event.ID
	if id == "" {
		id = "event"
	}
	return fmt.Sprintf("event-impact-%s-%s.xlsx", a.Event.Date, id)
}

func writeSummary(wb *excelize.File, a *impact.Analysis, f *format.Formatter, headerStyle, moneyStyle int) {
	sheet := SummarySheet
	month := a.Comparison(impact.BaselineMonth)

	rows := [][]interface{}{
		{"Field", "Value"},
		{"Event ID", a.Event.ID},
		{"Branch", a.Event.BranchID},
		{"Date", a.Event.Date.String()},
		{"Weekday", fmt.Sprintf("%s (#%d of the month)", a.Event.Date.Weekday(), a.WeekdayOrdinal)},
		{"Artist", a.Event.Artist},
		{"Cachet cost", a.Event.CachetCost.InexactFloat64()},
		{"Sound cost", a.Event.SoundCost.InexactFloat64()},
		{"Total cost", a.Event.TotalCost().InexactFloat64()},
		{"Sales", a.Observed.TotalSales.InexactFloat64()},
		{"Tickets", a.Observed.TicketCount},
		{"Avg ticket", a.Observed.AverageTicket.InexactFloat64()},
		{"Δ sales vs month", f.Percent(month.DeltaSalesPct)},
		{"Incremental sales", a.ROI.IncrementalSales.InexactFloat64()},
		{"ROI", f.ROI(a.ROI)},
		{"Process signal", f.Summarize(a).ProcessSignal},
		{"Verdict", string(a.Recommendation.Verdict)},
		{"Recommendation", a.Recommendation.Message},
	}
	if a.ROI.Reason != "" {
		rows = append(rows, []interface{}{"ROI note", a.ROI.Reason})
	}
	if a.Limits.Position != impact.PositionInsufficient && a.Limits.Position != "" {
		rows = append(rows,
			[]interface{}{"Upper process limit", a.Limits.UNPL},
			[]interface{}{"Lower process limit", a.Limits.LNPL},
		)
	}
	for _, w := range a.Warnings {
		rows = append(rows, []interface{}{"Warning", w})
	}

	for i, row := range rows {
		for j, val := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			wb.SetCellValue(sheet, cell, val)
			if _, isFloat := val.(float64); isFloat {
				wb.SetCellStyle(sheet, cell, cell, moneyStyle)
			}
		}
	}
	wb.SetRowStyle(sheet, 1, 1, headerStyle)
	wb.SetColWidth(sheet, "A", "A", 22)
	wb.SetColWidth(sheet, "B", "B", 60)
}

func writeBaselines(wb *excelize.File, a *impact.Analysis, f *format.Formatter, headerStyle, moneyStyle int) {
	sheet := BaselinesSheet
	for i, h := range baselineHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		wb.SetCellValue(sheet, cell, h)
	}
	wb.SetRowStyle(sheet, 1, 1, headerStyle)

	for i, b := range a.Baselines() {
		row := i + 2
		c := a.Comparison(b.Kind)

		ref := ""
		if b.ReferenceDate != nil {
			ref = b.ReferenceDate.String()
		}
		if b.NotApplicable {
			ref = "not applicable"
		}
		dates := ""
		for k, d := range b.SampleDates {
			if k > 0 {
				dates += ", "
			}
			dates += d.String()
		}

		values := []interface{}{
			format.BaselineLabel(b.Kind), ref, b.SampleSize, dates,
			b.AverageSales.InexactFloat64(), b.AverageTickets.InexactFloat64(), b.AverageTicketValue.InexactFloat64(),
			f.Percent(c.DeltaSalesPct), f.Percent(c.DeltaTicketsPct), f.Percent(c.DeltaAvgTicketPct),
		}
		for j, val := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			wb.SetCellValue(sheet, cell, val)
		}
		moneyFrom, _ := excelize.CoordinatesToCellName(5, row)
		moneyTo, _ := excelize.CoordinatesToCellName(7, row)
		wb.SetCellStyle(sheet, moneyFrom, moneyTo, moneyStyle)
	}

	wb.SetColWidth(sheet, "A", "A", 36)
	wb.SetColWidth(sheet, "B", "B", 16)
	wb.SetColWidth(sheet, "D", "D", 40)
	wb.SetColWidth(sheet, "E", "J", 14)
}
