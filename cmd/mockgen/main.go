package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"backoffice-mcp/cmd/mockgen/engine"
	"backoffice-mcp/internal/ledger"
)

const seedChunk = 500

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Daily noise distribution: uniform, weibull")
	outDir := flag.String("out", "./ledger", "Output directory for the JSONL ledger")
	branches := flag.Int("branches", 3, "Number of branches")
	months := flag.Int("months", 4, "Number of calendar months, ending with the current one")
	perMonth := flag.Int("events", 2, "Events per branch and month")
	seedFlag := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	sqlitePath := flag.String("sqlite", "", "Also seed a SQLite ledger at this path")
	postgresDSN := flag.String("postgres", "", "Also seed a Postgres ledger with this DSN")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:       *scenario,
		Distribution:   *distribution,
		Branches:       *branches,
		Months:         *months,
		EventsPerMonth: *perMonth,
		Now:            time.Now(),
		Seed:           *seedFlag,
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Branches: %d, Months: %d) to %s...\n",
		cfg.Scenario, cfg.Distribution, cfg.Branches, cfg.Months, *outDir)

	sales, events := engine.Generate(cfg)

	if _, err := engine.Save(*outDir, sales, events); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	targets := []ledger.SQLConfig{}
	if *sqlitePath != "" {
		targets = append(targets, ledger.SQLConfig{Driver: "sqlite", DSN: *sqlitePath})
	}
	if *postgresDSN != "" {
		targets = append(targets, ledger.SQLConfig{Driver: "postgres", DSN: *postgresDSN})
	}
	for _, target := range targets {
		if err := seed(target, sales, events); err != nil {
			fmt.Printf("Failed to seed %s ledger: %v\n", target.Driver, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Done: %d sales entries, %d events.\n", len(sales), len(events))
}

func seed(cfg ledger.SQLConfig, sales []ledger.SalesEntry, events []ledger.Event) error {
	store, err := ledger.OpenSQL(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return err
	}

	ctx := context.Background()
	bar := progressbar.Default(int64(len(sales)+len(events)), "seeding "+cfg.Driver)
	for start := 0; start < len(sales); start += seedChunk {
		end := min(start+seedChunk, len(sales))
		if err := store.InsertSales(ctx, sales[start:end]); err != nil {
			return err
		}
		_ = bar.Add(end - start)
	}
	for i := range events {
		e := events[i]
		if _, err := store.Event(ctx, e.ID); err == nil {
			_ = bar.Add(1)
			continue
		}
		if err := store.CreateEvent(ctx, &e); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	return bar.Finish()
}
