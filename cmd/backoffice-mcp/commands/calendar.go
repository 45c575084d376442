package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"backoffice-mcp/internal/impact"
	"backoffice-mcp/internal/ledger"
)

var calendarDate string

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show a date's weekday ordinal and its comparable day in the prior month",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := ledger.ParseDay(calendarDate)
		if err != nil {
			return err
		}
		renderCalendar(cmd.OutOrStdout(), date)
		return nil
	},
}

func renderCalendar(w io.Writer, date ledger.Day) {
	ordinal := impact.WeekdayOrdinal(date)
	fmt.Fprintf(w, "%s is %s #%d of %s\n", date, date.Weekday(), ordinal, impact.MonthLabel(date))
	if prior, ok := impact.PriorMonthSameOrdinal(date); ok {
		fmt.Fprintf(w, "Prior month comparable day: %s\n", prior)
	} else {
		fmt.Fprintf(w, "Prior month comparable day: none (the previous month has no %s #%d)\n", date.Weekday(), ordinal)
	}
}

func init() {
	calendarCmd.Flags().StringVar(&calendarDate, "date", "", "date to locate (YYYY-MM-DD)")
	_ = calendarCmd.MarkFlagRequired("date")
}
