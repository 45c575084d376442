package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"backoffice-mcp/internal/format"
	"backoffice-mcp/internal/impact"
	"backoffice-mcp/internal/ledger"
)

// ServerName is the implementation name announced to MCP clients.
const ServerName = "backoffice-mcp"

// Options tune the tool surface.
type Options struct {
	Version             string
	EnableMermaidCharts bool
	AnalysisTimeout     time.Duration
}

// Server holds the state for the MCP server.
type Server struct {
	store    ledger.Store
	analyzer *impact.Analyzer
	format   *format.Formatter
	opts     Options

	now func() time.Time
}

// NewServer creates a new MCP server over the given ledger.
func NewServer(store ledger.Store, analyzer *impact.Analyzer, f *format.Formatter, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Server{
		store:    store,
		analyzer: analyzer,
		format:   f,
		opts:     opts,
		now:      time.Now,
	}
}

// Build creates the SDK server with every tool registered.
func (s *Server) Build() *sdk.Server {
	srv := sdk.NewServer(&sdk.Implementation{Name: ServerName, Version: s.opts.Version}, nil)
	s.registerTools(srv)
	return srv
}

// Serve runs the MCP loop over stdio until the client disconnects or ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", s.opts.Version).Msg("Starting MCP server on stdio")
	return s.Build().Run(ctx, &sdk.StdioTransport{})
}

// addTool registers a handler that returns a ResponseEnvelope (or any JSON value),
// serialised as indented JSON text content.
func addTool[In any](srv *sdk.Server, s *Server, name, description string, handler func(context.Context, In) (interface{}, error)) {
	sdk.AddTool(srv, &sdk.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdk.CallToolRequest, in In) (*sdk.CallToolResult, any, error) {
			ctx, cancel := s.withTimeout(ctx)
			defer cancel()

			start := time.Now()
			data, err := handler(ctx, in)
			if err != nil {
				log.Warn().Err(err).Str("tool", name).Msg("Tool call failed")
				return nil, nil, err
			}
			log.Debug().Str("tool", name).Dur("elapsed", time.Since(start)).Msg("Tool call completed")

			return &sdk.CallToolResult{
				Content: []sdk.Content{&sdk.TextContent{Text: formatResult(data)}},
			}, nil, nil
		})
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.AnalysisTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.AnalysisTimeout)
}

func formatResult(data interface{}) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(out)
}
