package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"backoffice-mcp/internal/format"
	"backoffice-mcp/internal/impact"
	"backoffice-mcp/internal/ledger"
	"backoffice-mcp/internal/report"
)

var analyzeOpts struct {
	eventID  string
	branchID string
	date     string
	artist   string
	cachet   string
	sound    string
	asJSON   bool
	xlsxPath string
	open     bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one event and print the comparison with its baselines",
	Example: `  backoffice-mcp analyze --event 3f1c...
  backoffice-mcp analyze --branch 1 --date 2024-12-13 --cachet 20000 --sound 10000 --xlsx report.xlsx --open`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.AnalysisTimeout)
		defer cancel()

		a, err := runAnalysis(ctx, rt.Analyzer)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if analyzeOpts.asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(a); err != nil {
				return err
			}
		} else {
			renderAnalysis(out, a, rt.Format)
		}

		if analyzeOpts.xlsxPath == "" {
			return nil
		}
		path, err := writeReport(analyzeOpts.xlsxPath, a, rt.Format)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nWorkbook written to %s\n", path)
		if analyzeOpts.open {
			if err := browser.OpenFile(path); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Could not open the workbook")
			}
		}
		return nil
	},
}

func runAnalysis(ctx context.Context, analyzer *impact.Analyzer) (*impact.Analysis, error) {
	if id := strings.TrimSpace(analyzeOpts.eventID); id != "" {
		return analyzer.AnalyzeByID(ctx, id)
	}

	if analyzeOpts.branchID == "" || analyzeOpts.date == "" {
		return nil, fmt.Errorf("either --event or both --branch and --date are required")
	}
	date, err := ledger.ParseDay(analyzeOpts.date)
	if err != nil {
		return nil, err
	}
	cachet, err := parseAmount("--cachet", analyzeOpts.cachet)
	if err != nil {
		return nil, err
	}
	sound, err := parseAmount("--sound", analyzeOpts.sound)
	if err != nil {
		return nil, err
	}

	artist := analyzeOpts.artist
	if artist == "" {
		artist = "ad-hoc event"
	}
	return analyzer.Analyze(ctx, ledger.Event{
		BranchID:   analyzeOpts.branchID,
		Date:       date,
		Artist:     artist,
		CachetCost: cachet,
		SoundCost:  sound,
	})
}

func parseAmount(flag, raw string) (decimal.Decimal, error) {
	return ledger.ParseAmount(flag, raw)
}

// renderAnalysis prints the summary as aligned columns.
func renderAnalysis(w io.Writer, a *impact.Analysis, f *format.Formatter) {
	s := f.Summarize(a)

	fmt.Fprintf(w, "%s\n", s.Event)
	fmt.Fprintf(w, "Sales %s, %s tickets, average ticket %s\n\n", s.ObservedSales, s.Tickets, s.AverageTicket)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BASELINE\tREFERENCE\tSALES\tTICKETS\tAVG TICKET")
	for _, line := range s.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", line.Baseline, line.Reference, line.Sales, line.Tickets, line.AverageTicket)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nCost %s, incremental sales %s, ROI %s\n", s.TotalCost, s.Incremental, s.ROI)
	fmt.Fprintf(w, "%s\n", s.ProcessSignal)
	fmt.Fprintf(w, "Verdict: %s. %s\n", s.Verdict, s.Message)
	for _, warning := range a.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func writeReport(path string, a *impact.Analysis, f *format.Formatter) (string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, report.Filename(a))
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := report.WriteWorkbook(file, a, f); err != nil {
		return "", err
	}
	return path, nil
}

func init() {
	flags := analyzeCmd.Flags()
	flags.StringVar(&analyzeOpts.eventID, "event", "", "ID of a registered event")
	flags.StringVar(&analyzeOpts.branchID, "branch", "", "branch of an ad-hoc event")
	flags.StringVar(&analyzeOpts.date, "date", "", "date of an ad-hoc event (YYYY-MM-DD)")
	flags.StringVar(&analyzeOpts.artist, "artist", "", "performer of an ad-hoc event")
	flags.StringVar(&analyzeOpts.cachet, "cachet", "", "performer fee of an ad-hoc event")
	flags.StringVar(&analyzeOpts.sound, "sound", "", "sound cost of an ad-hoc event")
	flags.BoolVar(&analyzeOpts.asJSON, "json", false, "print the full analysis as JSON")
	flags.StringVar(&analyzeOpts.xlsxPath, "xlsx", "", "also write an XLSX report to this file or directory")
	flags.BoolVar(&analyzeOpts.open, "open", false, "open the XLSX report once written")
}
