// Package api exposes event analyses over HTTP for the back-office dashboard.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"backoffice-mcp/internal/format"
	"backoffice-mcp/internal/impact"
	"backoffice-mcp/internal/ledger"
)

type Server struct {
	store    ledger.Store
	analyzer *impact.Analyzer
	format   *format.Formatter
	timeout  time.Duration
	version  string

	now func() time.Time
}

func NewServer(store ledger.Store, analyzer *impact.Analyzer, f *format.Formatter, timeout time.Duration, version string) *Server {
	return &Server{
		store:    store,
		analyzer: analyzer,
		format:   f,
		timeout:  timeout,
		version:  version,
		now:      time.Now,
	}
}

// App builds the fiber application with every route mounted.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "backoffice-mcp",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return ErrorResponse(c, fe.Code, fe.Message, nil)
			}
			return failure(c, err)
		},
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
	}))
	app.Use(requestLogger)

	s.routes(app)
	return app
}

func (s *Server) routes(app *fiber.App) {
	v1 := app.Group("/api/v1")
	v1.Get("/health", s.Health)

	events := v1.Group("/events")
	events.Get("/", ListEventsQuery(s.today), s.ListEvents)
	events.Post("/", CreateEvent(), s.CreateEvent)
	events.Get("/:id", s.GetEvent)
	events.Get("/:id/analysis", s.GetAnalysis)
	events.Get("/:id/analysis.xlsx", s.GetAnalysisWorkbook)

	calendar := v1.Group("/calendar")
	calendar.Get("/prior-month", DateQuery("date"), s.PriorMonth)
}

// Listen serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	app := s.App()
	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Warn().Err(err).Msg("HTTP shutdown did not complete cleanly")
		}
	}()
	log.Info().Str("addr", addr).Msg("HTTP API listening")
	return app.Listen(addr)
}

func (s *Server) today() ledger.Day {
	return ledger.NewDay(s.now())
}

func (s *Server) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), s.timeout)
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("HTTP request")
	return err
}
