package api

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"backoffice-mcp/internal/impact"
	"backoffice-mcp/internal/ledger"
	"backoffice-mcp/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) Health(c *fiber.Ctx) error {
	return SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"version": s.version,
		"locale":  s.format.Locale(),
	})
}

func (s *Server) ListEvents(c *fiber.Ctx) error {
	q := c.Locals("listQuery").(listQuery)

	ctx, cancel := s.requestContext(c)
	defer cancel()

	events, err := s.store.Events(ctx, q.BranchID, q.From, q.To)
	if err != nil {
		log.Error().Err(err).Str("branch", q.BranchID).Msg("Failed to list events")
		return ErrorResponse(c, fiber.StatusServiceUnavailable, "Ledger unavailable", err)
	}
	if events == nil {
		events = []ledger.Event{}
	}

	return SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"branch_id": q.BranchID,
		"from":      q.From,
		"to":        q.To,
		"rows":      events,
		"total":     len(events),
	})
}

func (s *Server) GetEvent(c *fiber.Ctx) error {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	e, err := s.store.Event(ctx, strings.TrimSpace(c.Params("id")))
	if err != nil {
		if !errors.Is(err, ledger.ErrNotFound) {
			err = fmt.Errorf("%w: %w", impact.ErrDataSourceUnavailable, err)
		}
		return failure(c, err)
	}
	return SuccessResponse(c, fiber.StatusOK, e)
}

func (s *Server) CreateEvent(c *fiber.Ctx) error {
	input := c.Locals("createInput").(ledger.Event)

	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.store.CreateEvent(ctx, &input); err != nil {
		log.Error().Err(err).Str("branch", input.BranchID).Msg("Failed to register event")
		return failure(c, err)
	}
	log.Info().Str("id", input.ID).Str("branch", input.BranchID).Str("date", input.Date.String()).Msg("Registered event")

	return SuccessResponse(c, fiber.StatusCreated, input)
}

func (s *Server) GetAnalysis(c *fiber.Ctx) error {
	a, err := s.analyze(c)
	if err != nil {
		return failure(c, err)
	}
	return SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"analysis": a,
		"summary":  s.format.Summarize(a),
	})
}

func (s *Server) GetAnalysisWorkbook(c *fiber.Ctx) error {
	a, err := s.analyze(c)
	if err != nil {
		return failure(c, err)
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, a, s.format); err != nil {
		return ErrorResponse(c, fiber.StatusInternalServerError, "Could not build the workbook", err)
	}

	c.Attachment(report.Filename(a))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

func (s *Server) PriorMonth(c *fiber.Ctx) error {
	date := c.Locals("date").(ledger.Day)
	prior, ok := impact.PriorMonthSameOrdinal(date)

	res := fiber.Map{
		"date":            date,
		"weekday":         date.Weekday().String(),
		"weekday_ordinal": impact.WeekdayOrdinal(date),
		"applicable":      ok,
		"prior_date":      nil,
	}
	if ok {
		res["prior_date"] = prior
	}
	return SuccessResponse(c, fiber.StatusOK, res)
}

func (s *Server) analyze(c *fiber.Ctx) (*impact.Analysis, error) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	return s.analyzer.AnalyzeByID(ctx, strings.TrimSpace(c.Params("id")))
}
