package mcp

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"backoffice-mcp/internal/ledger"
)

// ResponseEnvelope is the shape of every tool result.
type ResponseEnvelope struct {
	Data     interface{} `json:"data"`
	Guidance []string    `json:"guidance,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

// WrapResponse builds the envelope returned by tool handlers.
func WrapResponse(data interface{}, warnings []string, guidance []string) ResponseEnvelope {
	return ResponseEnvelope{Data: data, Guidance: guidance, Warnings: warnings}
}

func parseDay(field, value string) (ledger.Day, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return ledger.Day{}, fmt.Errorf("%s is required (YYYY-MM-DD)", field)
	}
	d, err := ledger.ParseDay(value)
	if err != nil {
		return ledger.Day{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", field, value)
	}
	return d, nil
}

// resolveRange applies the defaults of the range-based tools: from the start of the
// month three months back, to today.
func (s *Server) resolveRange(from, to string) (ledger.Day, ledger.Day, error) {
	today := ledger.NewDay(s.now())
	end := today
	if strings.TrimSpace(to) != "" {
		d, err := parseDay("to", to)
		if err != nil {
			return ledger.Day{}, ledger.Day{}, err
		}
		end = d
	}

	start := ledger.NewDay(end.AddDate(0, -3, 1-end.Day()))
	if strings.TrimSpace(from) != "" {
		d, err := parseDay("from", from)
		if err != nil {
			return ledger.Day{}, ledger.Day{}, err
		}
		start = d
	}

	if start.After(end.Time) {
		return ledger.Day{}, ledger.Day{}, fmt.Errorf("from (%s) is after to (%s)", start, end)
	}
	return start, end, nil
}

// costs parses the cachet and sound amounts of a tool call.
func costs(cachet, sound string) (decimal.Decimal, decimal.Decimal, error) {
	c, err := ledger.ParseAmount("cachet_cost", cachet)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	snd, err := ledger.ParseAmount("sound_cost", sound)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return c, snd, nil
}
