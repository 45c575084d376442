package commands

import (
	"github.com/spf13/cobra"

	"backoffice-mcp/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API used by the back-office dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		rt, err := bootstrap(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		addr := serveAddr
		if addr == "" {
			addr = cfg.HTTPAddr
		}
		return api.NewServer(rt.Store, rt.Analyzer, rt.Format, cfg.AnalysisTimeout, Version).Listen(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to HTTP_ADDR)")
}
