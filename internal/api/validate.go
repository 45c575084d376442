package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"backoffice-mcp/internal/ledger"
)

var validate = validator.New()

type eventFilter struct {
	BranchID string `query:"branch_id" validate:"required,max=64"`
	From     string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

// listQuery is the parsed form of eventFilter.
type listQuery struct {
	BranchID string
	From     ledger.Day
	To       ledger.Day
}

func ListEventsQuery(today func() ledger.Day) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var filter eventFilter
		if err := c.QueryParser(&filter); err != nil {
			return ErrorResponse(c, fiber.StatusBadRequest, "Invalid query", err)
		}
		filter.BranchID = strings.TrimSpace(filter.BranchID)
		if err := validate.Struct(filter); err != nil {
			return ErrorResponse(c, fiber.StatusBadRequest, "Invalid query", describe(err))
		}

		q := listQuery{BranchID: filter.BranchID}
		now := today()
		q.From, q.To = ledger.NewDay(now.AddDate(0, 0, 1-now.Day())), now
		if filter.From != "" {
			q.From = ledger.MustParseDay(filter.From)
		}
		if filter.To != "" {
			q.To = ledger.MustParseDay(filter.To)
		}
		if q.From.After(q.To.Time) {
			return ErrorResponse(c, fiber.StatusBadRequest, "Invalid query", fmt.Errorf("from (%s) is after to (%s)", q.From, q.To))
		}

		c.Locals("listQuery", q)
		return c.Next()
	}
}

func CreateEvent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input ledger.Event
		if err := c.BodyParser(&input); err != nil {
			return ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", err)
		}
		// IDs are assigned by the ledger
		input.ID = ""
		if err := ledger.ValidateEvent(&input); err != nil {
			return ErrorResponse(c, fiber.StatusBadRequest, "Invalid event", err)
		}

		c.Locals("createInput", input)
		return c.Next()
	}
}

func DateQuery(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			return ErrorResponse(c, fiber.StatusBadRequest, "Invalid query", fmt.Errorf("%s is required (YYYY-MM-DD)", key))
		}
		d, err := ledger.ParseDay(raw)
		if err != nil {
			return ErrorResponse(c, fiber.StatusBadRequest, "Invalid query", err)
		}
		c.Locals(key, d)
		return c.Next()
	}
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return errors.New(strings.Join(fields, ", "))
}
