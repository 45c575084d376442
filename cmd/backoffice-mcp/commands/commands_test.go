package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"backoffice-mcp/internal/config"
	"backoffice-mcp/internal/format"
	"backoffice-mcp/internal/impact"
	"backoffice-mcp/internal/ledger"
)

func seedFileLedger(t *testing.T, dir string) {
	t.Helper()
	d := ledger.MustParseDay
	dec := decimal.RequireFromString

	store := ledger.NewFileStore(dir)
	store.AppendSales([]ledger.SalesEntry{
		{BranchID: "1", Date: d("2024-12-02"), TotalSales: dec("100000"), TicketCount: 100},
		{BranchID: "1", Date: d("2024-12-13"), TotalSales: dec("150000"), TicketCount: 120},
	})
	store.AppendEvents([]ledger.Event{
		{ID: "ev-13", BranchID: "1", Date: d("2024-12-13"), Artist: "Trio", CachetCost: dec("20000"), SoundCost: dec("10000")},
	})
	if err := store.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func TestBootstrap_FileLedger(t *testing.T) {
	dir := t.TempDir()
	seedFileLedger(t, dir)

	rt, err := bootstrap(&config.AppConfig{
		LedgerSource:  config.SourceFile,
		LedgerDir:     dir,
		CacheTTL:      time.Minute,
		Thresholds:    impact.DefaultThresholds(),
		DisplayLocale: "en-US",
	})
	if err != nil {
		t.Fatalf("bootstrap() error = %v", err)
	}
	defer rt.Close()

	if _, ok := rt.Store.(*ledger.FileStore); !ok {
		t.Errorf("Store is %T, want an uncached *ledger.FileStore", rt.Store)
	}

	a, err := rt.Analyzer.AnalyzeByID(context.Background(), "ev-13")
	if err != nil {
		t.Fatalf("AnalyzeByID() error = %v", err)
	}
	if a.ROI.Pct.String() != "66.67" {
		t.Errorf("ROI = %s, want 66.67", a.ROI.Pct)
	}
}

func TestBootstrap_SQLiteLedgerIsCached(t *testing.T) {
	rt, err := bootstrap(&config.AppConfig{
		LedgerSource:  config.SourceSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "ledger.db"),
		CacheTTL:      time.Minute,
		Thresholds:    impact.DefaultThresholds(),
		DisplayLocale: "en-US",
	})
	if err != nil {
		t.Fatalf("bootstrap() error = %v", err)
	}
	defer rt.Close()

	if _, ok := rt.Store.(*ledger.CachedSource); !ok {
		t.Errorf("Store is %T, want *ledger.CachedSource", rt.Store)
	}

	e := ledger.Event{BranchID: "1", Date: ledger.MustParseDay("2024-12-13"), Artist: "Trio"}
	if err := rt.Store.CreateEvent(context.Background(), &e); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if _, err := rt.Store.Event(context.Background(), e.ID); err != nil {
		t.Errorf("Event(%s) error = %v", e.ID, err)
	}
}

func TestBootstrap_UnknownSource(t *testing.T) {
	if _, err := bootstrap(&config.AppConfig{LedgerSource: "ftp"}); err == nil {
		t.Errorf("expected an error for an unknown ledger source")
	}
}

func TestRenderAnalysis(t *testing.T) {
	dir := t.TempDir()
	seedFileLedger(t, dir)
	store := ledger.NewFileStore(dir)
	if err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	a, err := impact.NewAnalyzer(store, impact.DefaultThresholds()).AnalyzeByID(context.Background(), "ev-13")
	if err != nil {
		t.Fatalf("AnalyzeByID() error = %v", err)
	}

	var buf bytes.Buffer
	renderAnalysis(&buf, a, format.New("en-US"))
	out := buf.String()

	for _, want := range []string{
		"Trio at branch 1 on 2024-12-13",
		"BASELINE",
		"Month average (excluding event days)",
		"ROI +66.67 %",
		"Verdict: repeat.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCalendar(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-12-13", "Prior month comparable day: 2024-11-08"},
		{"2024-03-29", "none (the previous month has no Friday #5)"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		renderCalendar(&buf, ledger.MustParseDay(tt.date))
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("renderCalendar(%s) = %q, want it to contain %q", tt.date, buf.String(), tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	if d, err := parseAmount("--cachet", ""); err != nil || !d.IsZero() {
		t.Errorf("parseAmount(\"\") = %s, %v", d, err)
	}
	if d, err := parseAmount("--cachet", "20000.50"); err != nil || d.String() != "20000.5" {
		t.Errorf("parseAmount(20000.50) = %s, %v", d, err)
	}
	if _, err := parseAmount("--cachet", "20k"); err == nil {
		t.Errorf("expected an error for 20k")
	}
}
