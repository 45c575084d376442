package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLConfig selects the SQL backend of a SQLStore.
type SQLConfig struct {
	Driver       string // "postgres" or "sqlite"
	DSN          string
	MaxOpenConns int
}

// SQLStore is a ledger kept in a relational database through GORM.
type SQLStore struct {
	db *gorm.DB
}

type salesEntryRecord struct {
	ID          uint            `gorm:"primaryKey"`
	BranchID    string          `gorm:"size:64;not null;uniqueIndex:idx_sales_branch_date_shift,priority:1"`
	Date        Day             `gorm:"not null;uniqueIndex:idx_sales_branch_date_shift,priority:2"`
	Shift       string          `gorm:"size:32;not null;default:'';uniqueIndex:idx_sales_branch_date_shift,priority:3"`
	TotalSales  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TicketCount int             `gorm:"not null;default:0"`
	CreatedAt   time.Time
}

func (salesEntryRecord) TableName() string { return "sales_entries" }

type eventRecord struct {
	ID         string          `gorm:"primaryKey;size:64"`
	BranchID   string          `gorm:"size:64;not null;index:idx_events_branch_date,priority:1"`
	Date       Day             `gorm:"not null;index:idx_events_branch_date,priority:2"`
	Artist     string          `gorm:"size:200;not null"`
	CachetCost decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	SoundCost  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Notes      string          `gorm:"type:text"`
	CreatedAt  time.Time
}

func (eventRecord) TableName() string { return "events" }

func (r eventRecord) toEvent() Event {
	return Event{
		ID:         r.ID,
		BranchID:   r.BranchID,
		Date:       r.Date,
		Artist:     r.Artist,
		CachetCost: r.CachetCost,
		SoundCost:  r.SoundCost,
		Notes:      r.Notes,
	}
}

// OpenSQL connects to the configured database and checks it is reachable.
func OpenSQL(cfg SQLConfig) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported SQL driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	} else {
		maxConns := cfg.MaxOpenConns
		if maxConns <= 0 {
			maxConns = 10
		}
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns / 2)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to reach %s database: %w", cfg.Driver, err)
	}

	log.Info().Str("driver", cfg.Driver).Msg("Connected to ledger database")
	return &SQLStore{db: db}, nil
}

// Migrate creates or updates the ledger tables.
func (s *SQLStore) Migrate() error {
	if err := s.db.AutoMigrate(&salesEntryRecord{}, &eventRecord{}); err != nil {
		return fmt.Errorf("failed to migrate ledger schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sumByDate reads the register closes of the range and adds them up per date. The sum is
// done on decimals here: SQLite keeps the amounts as REAL and SUM would add float error.
func (s *SQLStore) sumByDate(ctx context.Context, branchID string, from, to Day) ([]Observation, error) {
	var records []salesEntryRecord
	err := s.db.WithContext(ctx).
		Select("branch_id, date, shift, total_sales, ticket_count").
		Where("branch_id = ? AND date >= ? AND date <= ?", branchID, from, to).
		Order("date, shift").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}

	entries := make([]SalesEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, SalesEntry{
			BranchID:    r.BranchID,
			Date:        r.Date,
			Shift:       r.Shift,
			TotalSales:  r.TotalSales.Round(2),
			TicketCount: r.TicketCount,
		})
	}
	return aggregate(branchID, entries), nil
}

// TradingDay implements Source.
func (s *SQLStore) TradingDay(ctx context.Context, branchID string, date Day) (*Observation, error) {
	rows, err := s.sumByDate(ctx, branchID, date, date)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// TradingDays implements Source.
func (s *SQLStore) TradingDays(ctx context.Context, branchID string, from, to Day) ([]Observation, error) {
	return s.sumByDate(ctx, branchID, from, to)
}

// Events implements Source.
func (s *SQLStore) Events(ctx context.Context, branchID string, from, to Day) ([]Event, error) {
	var records []eventRecord
	err := s.db.WithContext(ctx).
		Where("branch_id = ? AND date >= ? AND date <= ?", branchID, from, to).
		Order("date, id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	events := make([]Event, 0, len(records))
	for _, r := range records {
		events = append(events, r.toEvent())
	}
	return events, nil
}

// Event implements Source.
func (s *SQLStore) Event(ctx context.Context, id string) (*Event, error) {
	var record eventRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	e := record.toEvent()
	return &e, nil
}

// CreateEvent implements Registry.
func (s *SQLStore) CreateEvent(ctx context.Context, e *Event) error {
	if err := ValidateEvent(e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	record := eventRecord{
		ID:         e.ID,
		BranchID:   e.BranchID,
		Date:       e.Date,
		Artist:     e.Artist,
		CachetCost: e.CachetCost,
		SoundCost:  e.SoundCost,
		Notes:      e.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// InsertSales stores cash-register closes, ignoring rows that already exist for the same branch, date and shift.
func (s *SQLStore) InsertSales(ctx context.Context, entries []SalesEntry) error {
	if len(entries) == 0 {
		return nil
	}
	records := make([]salesEntryRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, salesEntryRecord{
			BranchID:    e.BranchID,
			Date:        e.Date,
			Shift:       e.Shift,
			TotalSales:  e.TotalSales,
			TicketCount: e.TicketCount,
		})
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&records, 200).Error
	if err != nil {
		return fmt.Errorf("failed to insert sales: %w", err)
	}
	return nil
}
