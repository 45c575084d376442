package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *RESTSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRESTSource(RESTConfig{BaseURL: srv.URL + "/", APIKey: "secret"})
}

func TestRESTSource_TradingDays(t *testing.T) {
	var gotQuery map[string][]string
	src := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/sales_entries" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "secret" || r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Missing auth headers: %v", r.Header)
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"branch_id": 1, "date": "2024-12-06", "shift": "am", "total_sales": 60000.50, "ticket_count": 40},
			{"branch_id": 1, "date": "2024-12-06", "shift": "pm", "total_sales": "89999.50", "ticket_count": 60},
			{"branch_id": 1, "date": "2024-12-13", "shift": "am", "total_sales": 1000, "ticket_count": 1}
		]`))
	})

	days, err := src.TradingDays(context.Background(), "1", MustParseDay("2024-12-01"), MustParseDay("2024-12-31"))
	if err != nil {
		t.Fatalf("TradingDays failed: %v", err)
	}

	if got := gotQuery["branch_id"]; len(got) != 1 || got[0] != "eq.1" {
		t.Errorf("branch filter = %v, want [eq.1]", got)
	}
	if got := gotQuery["date"]; len(got) != 2 || got[0] != "gte.2024-12-01" || got[1] != "lte.2024-12-31" {
		t.Errorf("date filters = %v", got)
	}

	if len(days) != 2 {
		t.Fatalf("Expected 2 aggregated days, got %d", len(days))
	}
	if !days[0].TotalSales.Equal(dec("150000")) || days[0].TicketCount != 100 {
		t.Errorf("Expected 150000/100 for 2024-12-06, got %s/%d", days[0].TotalSales, days[0].TicketCount)
	}
	if days[0].BranchID != "1" {
		t.Errorf("BranchID = %q, want 1", days[0].BranchID)
	}
}

func TestRESTSource_TradingDay_Absent(t *testing.T) {
	src := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	obs, err := src.TradingDay(context.Background(), "1", MustParseDay("2024-12-06"))
	if err != nil {
		t.Fatalf("TradingDay failed: %v", err)
	}
	if obs != nil {
		t.Errorf("Expected nil observation, got %+v", obs)
	}
}

func TestRESTSource_Event(t *testing.T) {
	src := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "eq.42" {
			w.Write([]byte(`[{"id": 42, "branch_id": "3", "date": "2025-01-03", "artist": "Trio", "cachet_cost": "20000", "sound_cost": 10000, "notes": null}]`))
			return
		}
		w.Write([]byte(`[]`))
	})

	e, err := src.Event(context.Background(), "42")
	if err != nil {
		t.Fatalf("Event failed: %v", err)
	}
	if e.ID != "42" || e.BranchID != "3" || e.Date.String() != "2025-01-03" {
		t.Errorf("Unexpected event: %+v", e)
	}
	if !e.TotalCost().Equal(dec("30000")) {
		t.Errorf("TotalCost = %s, want 30000", e.TotalCost())
	}

	if _, err := src.Event(context.Background(), "7"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRESTSource_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		header string
		want   string
	}{
		{http.StatusUnauthorized, "", "authentication failed"},
		{http.StatusForbidden, "", "authentication failed"},
		{http.StatusTooManyRequests, "30", "retry after 30"},
		{http.StatusBadGateway, "", "status 502"},
	}

	for _, tt := range tests {
		src := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if tt.header != "" {
				w.Header().Set("Retry-After", tt.header)
			}
			w.WriteHeader(tt.status)
		})
		_, err := src.TradingDays(context.Background(), "1", MustParseDay("2024-12-01"), MustParseDay("2024-12-31"))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("status %d: error = %v, want it to contain %q", tt.status, err, tt.want)
		}
	}
}

func TestRESTSource_CreateEvent(t *testing.T) {
	var body map[string]interface{}
	src := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Invalid body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	e := &Event{BranchID: "1", Date: MustParseDay("2024-12-06"), Artist: "Trio", CachetCost: dec("100")}
	if err := src.CreateEvent(context.Background(), e); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if e.ID == "" {
		t.Error("Expected an ID to be assigned")
	}
	if body["date"] != "2024-12-06" || body["artist"] != "Trio" || body["id"] != e.ID {
		t.Errorf("Unexpected body: %v", body)
	}
}

func TestRESTSource_ThrottleHonoursCancellation(t *testing.T) {
	c := NewRESTSource(RESTConfig{BaseURL: "http://backend.invalid", RequestDelay: time.Hour})

	if err := c.throttle(context.Background()); err != nil {
		t.Fatalf("First request should not wait, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := c.throttle(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("throttle() = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Cancelled throttle waited %v", elapsed)
	}

	// Backend reads give up while waiting for their slot.
	if _, err := c.TradingDays(ctx, "1", MustParseDay("2024-12-01"), MustParseDay("2024-12-31")); !errors.Is(err, context.Canceled) {
		t.Errorf("TradingDays() = %v, want context.Canceled", err)
	}
}

func TestRESTSource_ThrottleSpacesRequests(t *testing.T) {
	delay := 40 * time.Millisecond
	c := NewRESTSource(RESTConfig{BaseURL: "http://backend.invalid", RequestDelay: delay})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := c.throttle(context.Background()); err != nil {
			t.Fatalf("throttle() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 2*delay {
		t.Errorf("Three requests took %v, want at least %v", elapsed, 2*delay)
	}
}
