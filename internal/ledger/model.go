package ledger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested record does not exist in the ledger.
var ErrNotFound = errors.New("not found")

// ErrInvalidEvent is wrapped by every event validation failure.
var ErrInvalidEvent = errors.New("invalid event")

// Observation is one branch's aggregated sales and ticket count for one calendar date.
type Observation struct {
	BranchID    string          `json:"branch_id"`
	Date        Day             `json:"date"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TicketCount int             `json:"ticket_count"`
}

// AverageTicket is TotalSales / TicketCount, or zero when no tickets were issued.
func (o Observation) AverageTicket() decimal.Decimal {
	if o.TicketCount <= 0 {
		return decimal.Zero
	}
	return o.TotalSales.Div(decimal.NewFromInt(int64(o.TicketCount))).Round(2)
}

// SalesEntry is a single cash-register close. Several entries for the same
// branch and date (one per shift) add up to one Observation.
type SalesEntry struct {
	BranchID    string          `json:"branch_id" validate:"required"`
	Date        Day             `json:"date" validate:"required"`
	Shift       string          `json:"shift,omitempty"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TicketCount int             `json:"ticket_count" validate:"gte=0"`
}

func (e SalesEntry) identity() string {
	return fmt.Sprintf("%s|%s|%s", e.BranchID, e.Date, e.Shift)
}

// Event is a promotional event (a live show) held at a branch on a given date.
type Event struct {
	ID         string          `json:"id"`
	BranchID   string          `json:"branch_id" validate:"required,max=64"`
	Date       Day             `json:"date" validate:"required"`
	Artist     string          `json:"artist" validate:"required,max=200"`
	CachetCost decimal.Decimal `json:"cachet_cost"`
	SoundCost  decimal.Decimal `json:"sound_cost"`
	Notes      string          `json:"notes,omitempty" validate:"max=2000"`
}

// TotalCost is the direct cost of the event.
func (e Event) TotalCost() decimal.Decimal {
	return e.CachetCost.Add(e.SoundCost)
}

// Source is the read side of the ledger. Implementations must be safe for concurrent use.
type Source interface {
	// TradingDay returns the observation for one date, or nil when nothing was recorded.
	TradingDay(ctx context.Context, branchID string, date Day) (*Observation, error)
	// TradingDays returns the recorded dates in [from, to], ordered by date. Gaps are not filled.
	TradingDays(ctx context.Context, branchID string, from, to Day) ([]Observation, error)
	// Events returns the events registered for the branch in [from, to], ordered by date.
	Events(ctx context.Context, branchID string, from, to Day) ([]Event, error)
	// Event returns a single event or ErrNotFound.
	Event(ctx context.Context, id string) (*Event, error)
}

// Registry is the write side for events.
type Registry interface {
	CreateEvent(ctx context.Context, e *Event) error
}

// Store is a ledger that can both answer queries and register events.
type Store interface {
	Source
	Registry
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(Day); ok {
			if d.IsZero() {
				return nil
			}
			return d.String()
		}
		return nil
	}, Day{})
	return v
}

// ParseAmount reads a money amount typed by a user, such as "20000.50". Blank means zero.
// Amounts are parsed from their decimal text, never through a float.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s amount %q", ErrInvalidEvent, field, raw)
	}
	return d, nil
}

// ValidateEvent checks the fields of an event before it is registered.
func ValidateEvent(e *Event) error {
	if e == nil {
		return fmt.Errorf("%w: event is required", ErrInvalidEvent)
	}
	e.BranchID = strings.TrimSpace(e.BranchID)
	e.Artist = strings.TrimSpace(e.Artist)
	if err := validate.Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidEvent, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if e.CachetCost.IsNegative() || e.SoundCost.IsNegative() {
		return fmt.Errorf("%w: costs cannot be negative", ErrInvalidEvent)
	}
	return nil
}

// ValidateEntry checks a sales entry before it is stored.
func ValidateEntry(e *SalesEntry) error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid sales entry: %w", err)
	}
	if e.TotalSales.IsNegative() {
		return errors.New("invalid sales entry: total_sales cannot be negative")
	}
	return nil
}

// aggregate sums entries per date into observations ordered by date.
func aggregate(branchID string, entries []SalesEntry) []Observation {
	byDate := make(map[string]*Observation)
	var order []string
	for _, e := range entries {
		key := e.Date.String()
		obs, ok := byDate[key]
		if !ok {
			obs = &Observation{BranchID: branchID, Date: e.Date, TotalSales: decimal.Zero}
			byDate[key] = obs
			order = append(order, key)
		}
		obs.TotalSales = obs.TotalSales.Add(e.TotalSales)
		obs.TicketCount += e.TicketCount
	}
	sort.Strings(order)

	result := make([]Observation, 0, len(order))
	for _, key := range order {
		result = append(result, *byDate[key])
	}
	return result
}
