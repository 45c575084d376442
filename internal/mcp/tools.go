package mcp

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type AnalyzeEventInput struct {
	EventID    string `json:"event_id,omitempty" jsonschema:"ID of a registered event. When set the other fields are ignored."`
	BranchID   string `json:"branch_id,omitempty" jsonschema:"Branch identifier of an ad-hoc event"`
	Date       string `json:"date,omitempty" jsonschema:"Ad-hoc event date as YYYY-MM-DD"`
	Artist     string `json:"artist,omitempty" jsonschema:"Performer or show name"`
	CachetCost string `json:"cachet_cost,omitempty" jsonschema:"Fee paid to the performer, as a decimal string such as 20000.50"`
	SoundCost  string `json:"sound_cost,omitempty" jsonschema:"Sound and staging cost, as a decimal string such as 8000"`
}

type RegisterEventInput struct {
	BranchID   string `json:"branch_id" jsonschema:"Branch identifier"`
	Date       string `json:"date" jsonschema:"Event date as YYYY-MM-DD"`
	Artist     string `json:"artist" jsonschema:"Performer or show name"`
	CachetCost string `json:"cachet_cost,omitempty" jsonschema:"Fee paid to the performer, as a decimal string such as 20000.50"`
	SoundCost  string `json:"sound_cost,omitempty" jsonschema:"Sound and staging cost, as a decimal string such as 8000"`
	Notes      string `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

type EventIDInput struct {
	EventID string `json:"event_id" jsonschema:"ID of the event"`
}

type BranchRangeInput struct {
	BranchID string `json:"branch_id" jsonschema:"Branch identifier"`
	From     string `json:"from,omitempty" jsonschema:"First date (YYYY-MM-DD). Defaults to the first day of the month three months ago."`
	To       string `json:"to,omitempty" jsonschema:"Last date (YYYY-MM-DD). Defaults to today."`
}

type DateInput struct {
	Date string `json:"date" jsonschema:"Calendar date as YYYY-MM-DD"`
}

func (s *Server) registerTools(srv *sdk.Server) {
	addTool(srv, s, "analyze_event",
		"Measure the impact of an event on the branch's sales for that day. Compares the event day with three baselines (month average without event days, same weekday in the month, same weekday ordinal of the prior month) and computes ROI against the month baseline. Pass either 'event_id' or the ad-hoc fields (branch_id, date, artist, costs).",
		s.handleAnalyzeEvent)

	addTool(srv, s, "list_events",
		"List the events registered for a branch in a date range. Guidance: use the returned IDs with 'analyze_event'.",
		s.handleListEvents)

	addTool(srv, s, "get_event",
		"Get one registered event by ID, including its total cost.",
		s.handleGetEvent)

	addTool(srv, s, "register_event",
		"Register a new event (branch, date, artist, cachet and sound costs). Returns the stored event with its generated ID.",
		s.handleRegisterEvent)

	addTool(srv, s, "get_trading_days",
		"Get the daily sales totals and ticket counts of a branch in a date range. Days without recorded sales are absent, not zero.",
		s.handleGetTradingDays)

	addTool(srv, s, "locate_comparable_day",
		"For a date, return its weekday ordinal within the month (1st to 5th) and the date holding the same weekday ordinal in the previous month, if that month has one.",
		s.handleLocateComparableDay)
}
