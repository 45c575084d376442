package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"backoffice-mcp/internal/config"
	"backoffice-mcp/internal/logging"
	"backoffice-mcp/internal/mcp"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "backoffice-mcp",
	Short: "backoffice-mcp measures the sales impact of events held at retail branches",
	Long: `An MCP server and back-office tool that compares an event day's sales with three baselines
(month average without event days, same weekday in the month, same weekday of the prior month)
and computes the event's ROI against its direct cost.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("ledger", cfg.LedgerSource).
			Msg("backoffice-mcp starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		rt, err := bootstrap(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		server := mcp.NewServer(rt.Store, rt.Analyzer, rt.Format, mcp.Options{
			Version:             Version,
			EnableMermaidCharts: cfg.EnableMermaidCharts,
			AnalysisTimeout:     cfg.AnalysisTimeout,
		})
		return server.Serve(ctx)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(serveCmd, analyzeCmd, calendarCmd, migrateCmd)
}
