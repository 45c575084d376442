package ledger

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// flexID accepts both numeric and string identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(string(data), `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// salesRowDTO is one row of the sales table.
type salesRowDTO struct {
	BranchID    flexID          `json:"branch_id"`
	Date        Day             `json:"date"`
	Shift       string          `json:"shift,omitempty"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TicketCount int             `json:"ticket_count"`
}

func salesEntriesFromDTO(rows []salesRowDTO) []SalesEntry {
	entries := make([]SalesEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, SalesEntry{
			BranchID:    string(r.BranchID),
			Date:        r.Date,
			Shift:       r.Shift,
			TotalSales:  r.TotalSales,
			TicketCount: r.TicketCount,
		})
	}
	return entries
}

// eventRowDTO is one row of the events table.
type eventRowDTO struct {
	ID         flexID          `json:"id"`
	BranchID   flexID          `json:"branch_id"`
	Date       Day             `json:"date"`
	Artist     string          `json:"artist"`
	CachetCost decimal.Decimal `json:"cachet_cost"`
	SoundCost  decimal.Decimal `json:"sound_cost"`
	Notes      *string         `json:"notes,omitempty"`
}

func (r eventRowDTO) toEvent() Event {
	e := Event{
		ID:         string(r.ID),
		BranchID:   string(r.BranchID),
		Date:       r.Date,
		Artist:     r.Artist,
		CachetCost: r.CachetCost,
		SoundCost:  r.SoundCost,
	}
	if r.Notes != nil {
		e.Notes = *r.Notes
	}
	return e
}

// eventInsertDTO is the body sent when registering an event.
type eventInsertDTO struct {
	ID         string          `json:"id"`
	BranchID   string          `json:"branch_id"`
	Date       Day             `json:"date"`
	Artist     string          `json:"artist"`
	CachetCost decimal.Decimal `json:"cachet_cost"`
	SoundCost  decimal.Decimal `json:"sound_cost"`
	Notes      string          `json:"notes,omitempty"`
}

func eventRowFromEvent(e Event) eventInsertDTO {
	return eventInsertDTO{
		ID:         e.ID,
		BranchID:   e.BranchID,
		Date:       e.Date,
		Artist:     e.Artist,
		CachetCost: e.CachetCost,
		SoundCost:  e.SoundCost,
		Notes:      e.Notes,
	}
}
