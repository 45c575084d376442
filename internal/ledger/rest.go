package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RESTConfig holds the connection settings for the hosted backend's REST API.
type RESTConfig struct {
	BaseURL string
	APIKey  string

	SalesTable  string
	EventsTable string

	// Performance Settings
	RequestDelay time.Duration
	Timeout      time.Duration
}

// RESTSource reads the ledger from a PostgREST-style API (filters such as
// branch_id=eq.3 and date=gte.2025-01-01).
type RESTSource struct {
	cfg        RESTConfig
	httpClient *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time
}

// NewRESTSource creates a client for the backend described by cfg.
func NewRESTSource(cfg RESTConfig) *RESTSource {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.SalesTable == "" {
		cfg.SalesTable = "sales_entries"
	}
	if cfg.EventsTable == "" {
		cfg.EventsTable = "events"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &RESTSource{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// throttle spaces requests RequestDelay apart. Each caller reserves the next free slot
// under the lock and waits for it outside, so a cancelled ctx returns at once.
func (c *RESTSource) throttle(ctx context.Context) error {
	if c.cfg.RequestDelay <= 0 {
		return nil
	}
	c.throttleMu.Lock()
	now := time.Now()
	slot := c.lastRequest.Add(c.cfg.RequestDelay)
	if slot.Before(now) {
		slot = now
	}
	c.lastRequest = slot
	c.throttleMu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}
	log.Debug().Dur("wait", wait).Msg("Throttling backend request")
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *RESTSource) authenticateRequest(req *http.Request) {
	if c.cfg.APIKey == "" {
		return
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))
}

// TradingDay implements Source.
func (c *RESTSource) TradingDay(ctx context.Context, branchID string, date Day) (*Observation, error) {
	params := url.Values{}
	params.Set("select", "branch_id,date,shift,total_sales,ticket_count")
	params.Set("branch_id", "eq."+branchID)
	params.Set("date", "eq."+date.String())

	var rows []salesRowDTO
	if err := c.get(ctx, c.cfg.SalesTable, params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	obs := aggregate(branchID, salesEntriesFromDTO(rows))[0]
	return &obs, nil
}

// TradingDays implements Source.
func (c *RESTSource) TradingDays(ctx context.Context, branchID string, from, to Day) ([]Observation, error) {
	params := url.Values{}
	params.Set("select", "branch_id,date,shift,total_sales,ticket_count")
	params.Set("branch_id", "eq."+branchID)
	params.Add("date", "gte."+from.String())
	params.Add("date", "lte."+to.String())
	params.Set("order", "date.asc")

	var rows []salesRowDTO
	if err := c.get(ctx, c.cfg.SalesTable, params, &rows); err != nil {
		return nil, err
	}
	return aggregate(branchID, salesEntriesFromDTO(rows)), nil
}

// Events implements Source.
func (c *RESTSource) Events(ctx context.Context, branchID string, from, to Day) ([]Event, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("branch_id", "eq."+branchID)
	params.Add("date", "gte."+from.String())
	params.Add("date", "lte."+to.String())
	params.Set("order", "date.asc")

	var rows []eventRowDTO
	if err := c.get(ctx, c.cfg.EventsTable, params, &rows); err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toEvent())
	}
	sortEvents(events)
	return events, nil
}

// Event implements Source.
func (c *RESTSource) Event(ctx context.Context, id string) (*Event, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("id", "eq."+id)
	params.Set("limit", "1")

	var rows []eventRowDTO
	if err := c.get(ctx, c.cfg.EventsTable, params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	e := rows[0].toEvent()
	return &e, nil
}

// CreateEvent implements Registry.
func (c *RESTSource) CreateEvent(ctx context.Context, e *Event) error {
	if err := ValidateEvent(e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	body, err := json.Marshal(eventRowFromEvent(*e))
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := c.throttle(ctx); err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.cfg.BaseURL, c.cfg.EventsTable)
	log.Debug().Str("url", endpoint).Str("event", e.ID).Msg("Registering event in backend")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.authenticateRequest(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}
	return nil
}

func (c *RESTSource) get(ctx context.Context, table string, params url.Values, out interface{}) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.cfg.BaseURL, table, params.Encode())
	log.Debug().Str("url", endpoint).Msg("Backend request")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.authenticateRequest(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", table, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("backend authentication failed (%d), check BACKEND_API_KEY", resp.StatusCode)
	case http.StatusNotFound:
		return fmt.Errorf("backend resource not found (404), check BACKEND_URL and table names")
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		if retryAfter != "" {
			return fmt.Errorf("backend rate limit exceeded (429), retry after %s seconds", retryAfter)
		}
		return fmt.Errorf("backend rate limit exceeded (429)")
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if len(msg) > 0 {
			return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
}
