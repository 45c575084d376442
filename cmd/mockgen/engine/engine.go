package engine

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"backoffice-mcp/internal/ledger"
)

type GeneratorConfig struct {
	Scenario       string // "mild", "chaos" or "drift"
	Distribution   string // "uniform" or "weibull" daily noise
	Branches       int
	Months         int
	EventsPerMonth int
	Now            time.Time
	Seed           int64
}

// weekdayFactor shapes a typical week: quiet Mondays, busy weekends.
var weekdayFactor = map[time.Weekday]float64{
	time.Monday:    0.75,
	time.Tuesday:   0.85,
	time.Wednesday: 0.90,
	time.Thursday:  1.00,
	time.Friday:    1.25,
	time.Saturday:  1.35,
	time.Sunday:    0.90,
}

// Generate produces cash-register closes (two shifts per day) and the events held
// at each branch, from the first day of the oldest month up to the day before Now.
func Generate(cfg GeneratorConfig) ([]ledger.SalesEntry, []ledger.Event) {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Branches <= 0 {
		cfg.Branches = 1
	}
	if cfg.Months <= 0 {
		cfg.Months = 3
	}
	if cfg.EventsPerMonth < 0 {
		cfg.EventsPerMonth = 0
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	now := ledger.NewDay(cfg.Now)
	start := time.Date(now.Year(), now.Month()-time.Month(cfg.Months-1), 1, 0, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 0, -1)

	var sales []ledger.SalesEntry
	var events []ledger.Event

	for b := 1; b <= cfg.Branches; b++ {
		branchID := fmt.Sprintf("%d", b)
		baseSales := 80000 + rng.Float64()*40000
		baseTicket := 750 + rng.Float64()*200

		eventDays := pickEventDays(rng, start, end, cfg.EventsPerMonth)

		dayIndex := 0
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			dayIndex++
			date := ledger.NewDay(d)
			_, isEvent := eventDays[date.String()]

			// Chaos: the branch sometimes stays closed
			if cfg.Scenario == "chaos" && !isEvent && rng.Float64() < 0.05 {
				continue
			}

			level := baseSales * weekdayFactor[d.Weekday()] * noise(rng, cfg.Distribution)
			if cfg.Scenario == "drift" {
				level *= 1 + 0.01*float64(dayIndex)/7
			}
			if isEvent {
				level *= eventLift(rng, cfg.Scenario, cfg.Distribution)
			}

			ticket := baseTicket * noise(rng, "uniform")
			tickets := int(math.Round(level / ticket))

			// Morning shift takes roughly 40% of the day
			share := 0.35 + rng.Float64()*0.1
			amTickets := int(math.Round(float64(tickets) * share))
			amSales := money(level * share)
			sales = append(sales,
				ledger.SalesEntry{BranchID: branchID, Date: date, Shift: "am", TotalSales: amSales, TicketCount: amTickets},
				ledger.SalesEntry{BranchID: branchID, Date: date, Shift: "pm", TotalSales: money(level).Sub(amSales), TicketCount: tickets - amTickets},
			)

			if isEvent {
				events = append(events, ledger.Event{
					ID:         fmt.Sprintf("mock-%s-%s", branchID, date),
					BranchID:   branchID,
					Date:       date,
					Artist:     artists[rng.Intn(len(artists))],
					CachetCost: decimal.NewFromInt(int64(15+rng.Intn(46)) * 1000),
					SoundCost:  decimal.NewFromInt(int64(5+rng.Intn(11)) * 1000),
				})
			}
		}
	}

	return sales, events
}

var artists = []string{
	"Los Pericos Tribute", "Jazz Trio Sur", "Cumbia Club", "DJ Matías", "Cuarteto Norte",
	"Acoustic Duo", "Tango Nuevo", "Open Mic Night",
}

// pickEventDays chooses up to perMonth Fridays or Saturdays in every month of the range.
func pickEventDays(rng *rand.Rand, start, end time.Time, perMonth int) map[string]struct{} {
	picked := make(map[string]struct{})
	if perMonth == 0 {
		return picked
	}
	byMonth := make(map[string][]time.Time)
	var months []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Friday && d.Weekday() != time.Saturday {
			continue
		}
		key := d.Format("2006-01")
		if _, ok := byMonth[key]; !ok {
			months = append(months, key)
		}
		byMonth[key] = append(byMonth[key], d)
	}
	for _, m := range months {
		candidates := byMonth[m]
		rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
		for i := 0; i < perMonth && i < len(candidates); i++ {
			picked[ledger.NewDay(candidates[i]).String()] = struct{}{}
		}
	}
	return picked
}

func noise(rng *rand.Rand, distribution string) float64 {
	if distribution == "weibull" {
		// Shape 3.5 centres close to 1 with a mild right tail
		return math.Min(weibullSample(rng, 3.5, 1.1), 1.6)
	}
	return 0.9 + rng.Float64()*0.2
}

func eventLift(rng *rand.Rand, scenario, distribution string) float64 {
	switch scenario {
	case "chaos":
		if distribution == "weibull" {
			return 0.6 + weibullSample(rng, 1.5, 0.6)
		}
		return 0.7 + rng.Float64()*1.1
	default:
		return 1.25 + rng.Float64()*0.2
	}
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Save writes the generated ledger to a file store in outDir.
func Save(outDir string, sales []ledger.SalesEntry, events []ledger.Event) (*ledger.FileStore, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}
	store := ledger.NewFileStore(outDir)
	store.AppendSales(sales)
	store.AppendEvents(events)
	if err := store.Save(); err != nil {
		return nil, fmt.Errorf("failed to save mock ledger: %w", err)
	}
	return store, nil
}
