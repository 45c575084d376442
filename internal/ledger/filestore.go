package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	salesFile  = "sales.jsonl"
	eventsFile = "events.jsonl"
)

// FileStore keeps the ledger in memory and persists it as JSONL files in a directory.
type FileStore struct {
	dir string

	mu     sync.RWMutex
	sales  map[string][]SalesEntry // Partitioned by branch
	events map[string]Event        // Keyed by event ID
}

// NewFileStore creates an empty store rooted at dir. Call Load to read existing data.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:    dir,
		sales:  make(map[string][]SalesEntry),
		events: make(map[string]Event),
	}
}

// Dir returns the directory the store persists to.
func (s *FileStore) Dir() string {
	return s.dir
}

// AppendSales adds entries, dropping duplicates (same branch, date and shift) and keeping each branch ordered by date.
func (s *FileStore) AppendSales(entries []SalesEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]bool)
	for _, branch := range s.sales {
		for _, e := range branch {
			existing[e.identity()] = true
		}
	}

	touched := make(map[string]bool)
	added := 0
	for _, e := range entries {
		id := e.identity()
		if existing[id] {
			continue
		}
		existing[id] = true
		s.sales[e.BranchID] = append(s.sales[e.BranchID], e)
		touched[e.BranchID] = true
		added++
	}

	for branchID := range touched {
		branch := s.sales[branchID]
		sort.SliceStable(branch, func(i, j int) bool {
			if !branch[i].Date.Equal(branch[j].Date) {
				return branch[i].Date.Before(branch[j].Date.Time)
			}
			return branch[i].Shift < branch[j].Shift
		})
	}
	return added
}

// AppendEvents adds events, replacing any event with the same ID.
func (s *FileStore) AppendEvents(events []Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		s.events[e.ID] = e
	}
}

// TradingDay implements Source.
func (s *FileStore) TradingDay(_ context.Context, branchID string, date Day) (*Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []SalesEntry
	for _, e := range s.sales[branchID] {
		if e.Date.Equal(date) {
			matching = append(matching, e)
		}
	}
	if len(matching) == 0 {
		return nil, nil
	}
	obs := aggregate(branchID, matching)[0]
	return &obs, nil
}

// TradingDays implements Source.
func (s *FileStore) TradingDays(_ context.Context, branchID string, from, to Day) ([]Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []SalesEntry
	for _, e := range s.sales[branchID] {
		if inRange(e.Date, from, to) {
			matching = append(matching, e)
		}
	}
	return aggregate(branchID, matching), nil
}

// Events implements Source.
func (s *FileStore) Events(_ context.Context, branchID string, from, to Day) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Event
	for _, e := range s.events {
		if e.BranchID == branchID && inRange(e.Date, from, to) {
			result = append(result, e)
		}
	}
	sortEvents(result)
	return result, nil
}

// AllEvents returns every stored event ordered by date.
func (s *FileStore) AllEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		result = append(result, e)
	}
	sortEvents(result)
	return result
}

// Event implements Source.
func (s *FileStore) Event(_ context.Context, id string) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return &e, nil
}

// CreateEvent implements Registry. The event is validated, assigned an ID when it has none and persisted.
func (s *FileStore) CreateEvent(_ context.Context, e *Event) error {
	if err := ValidateEvent(e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.AppendEvents([]Event{*e})
	return s.saveEvents()
}

// Load reads both JSONL files. Missing files are not an error.
func (s *FileStore) Load() error {
	var entries []SalesEntry
	if err := readJSONL(filepath.Join(s.dir, salesFile), func(line []byte) error {
		var e SalesEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	}); err != nil {
		return err
	}

	var events []Event
	if err := readJSONL(filepath.Join(s.dir, eventsFile), func(line []byte) error {
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		events = append(events, e)
		return nil
	}); err != nil {
		return err
	}

	s.AppendSales(entries)
	s.AppendEvents(events)
	log.Info().Str("dir", s.dir).Int("sales", len(entries)).Int("events", len(events)).Msg("Loaded ledger from disk")
	return nil
}

// Save persists both JSONL files.
func (s *FileStore) Save() error {
	if err := s.saveSales(); err != nil {
		return err
	}
	return s.saveEvents()
}

func (s *FileStore) saveSales() error {
	s.mu.RLock()
	branches := make([]string, 0, len(s.sales))
	for b := range s.sales {
		branches = append(branches, b)
	}
	sort.Strings(branches)
	var rows []interface{}
	for _, b := range branches {
		for _, e := range s.sales[b] {
			rows = append(rows, e)
		}
	}
	s.mu.RUnlock()

	return writeJSONL(filepath.Join(s.dir, salesFile), rows)
}

func (s *FileStore) saveEvents() error {
	events := s.AllEvents()
	rows := make([]interface{}, 0, len(events))
	for _, e := range events {
		rows = append(rows, e)
	}
	return writeJSONL(filepath.Join(s.dir, eventsFile), rows)
}

func readJSONL(path string, decode func([]byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := decode(scanner.Bytes()); err != nil {
			log.Warn().Err(err).Str("file", filepath.Base(path)).Msg("Skipping invalid JSON line")
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSONL writes rows to a temp file and renames it over path.
func writeJSONL(path string, rows []interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, row := range rows {
		if err := encoder.Encode(row); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode row: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}
	log.Debug().Str("file", filepath.Base(path)).Int("rows", len(rows)).Msg("Ledger file saved")
	return nil
}

func inRange(d, from, to Day) bool {
	return !d.Before(from.Time) && !d.After(to.Time)
}

func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date.Time)
		}
		return events[i].ID < events[j].ID
	})
}
