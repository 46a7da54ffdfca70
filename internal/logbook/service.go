// Package logbook is the application controller for the fuel log. It owns
// the current derived view and exposes the operations the presentation
// layers invoke; each one reports an outcome or an error.
package logbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/nhle/cub-fuel-log/internal/csvio"
	"github.com/nhle/cub-fuel-log/internal/derive"
	"github.com/nhle/cub-fuel-log/internal/model"
	"github.com/nhle/cub-fuel-log/internal/store"
)

// Outcome is the user-facing result of a successful mutation.
type Outcome struct {
	Message string `json:"message"`
}

// ImportResult summarises an import.
type ImportResult struct {
	Parsed     int `json:"parsed"`
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
}

// Message renders the result for a notification.
func (r ImportResult) Message() string {
	if r.Duplicates == 0 {
		return fmt.Sprintf("Imported %d records.", r.Imported)
	}
	return fmt.Sprintf("Imported %d records, skipped %d duplicates.", r.Imported, r.Duplicates)
}

// Service serialises mutations against the record store and rebuilds the
// derived view after each one.
type Service struct {
	mu      sync.RWMutex
	store   store.RecordStore
	records []model.FuelRecord
	view    []model.EnrichedRecord
	now     func() time.Time
}

// New creates a Service. A nil store yields a read-only service whose
// mutations fail with model.ErrStoreUnavailable.
func New(s store.RecordStore) *Service {
	return &Service{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Load reads every record from the store and rebuilds the view.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx)
}

// reload must be called with mu held.
func (s *Service) reload(ctx context.Context) error {
	if s.store == nil {
		return model.ErrStoreUnavailable
	}
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}
	s.records = records
	s.view = derive.DeriveAll(records)
	return nil
}

// afterMutation rebuilds the view. A failed reload keeps the previous view;
// the mutation itself has already been committed.
func (s *Service) afterMutation(ctx context.Context) {
	if err := s.reload(ctx); err != nil {
		log.Printf("logbook: %v", err)
	}
}

// View returns the derived log in ascending order.
func (s *Service) View() []model.EnrichedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.EnrichedRecord(nil), s.view...)
}

// Record returns the stored record with the given ID from the current view.
func (s *Service) Record(id int64) (model.FuelRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return model.FuelRecord{}, false
}

// Latest returns the most recent record in the derived order.
func (s *Service) Latest() (model.EnrichedRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return derive.Latest(s.view)
}

// Summary aggregates the given YYYY-MM month.
func (s *Service) Summary(month string) derive.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return derive.MonthlySummary(s.view, month)
}

// Between returns the derived records dated from..to inclusive, in log
// order. Derived values keep the context of records outside the range.
// An empty bound is open.
func (s *Service) Between(ctx context.Context, from, to string) ([]model.EnrichedRecord, error) {
	if from != "" {
		from = csvio.NormalizeDate(from)
	}
	if to != "" {
		to = csvio.NormalizeDate(to)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.store == nil {
		return nil, model.ErrStoreUnavailable
	}
	in, err := s.store.ListRecordsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing records %s..%s: %w", from, to, err)
	}
	ids := make(map[int64]bool, len(in))
	for _, r := range in {
		ids[r.ID] = true
	}

	var out []model.EnrichedRecord
	for _, r := range s.view {
		if ids[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// Preview forecasts the interval a not-yet-saved entry would close. When
// editing, pass the record's ID so it is left out of the comparison set;
// pass 0 for a new entry.
func (s *Service) Preview(in RecordInput, editingID int64) (derive.Preview, bool) {
	rec, err := in.Validate()
	if err != nil {
		return derive.Preview{}, false
	}

	s.mu.RLock()
	others := make([]model.FuelRecord, 0, len(s.records))
	for _, r := range s.records {
		if editingID != 0 && r.ID == editingID {
			continue
		}
		others = append(others, r)
	}
	s.mu.RUnlock()

	return derive.PreviewInsertion(others, rec.Date, rec.Odometer, rec.Fuel)
}

// AddRecord validates and stores a new record.
func (s *Service) AddRecord(ctx context.Context, in RecordInput) (Outcome, error) {
	rec, err := in.Validate()
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return Outcome{}, model.ErrStoreUnavailable
	}
	rec.Timestamp = s.now()
	if _, err := s.store.CreateRecord(ctx, rec); err != nil {
		return Outcome{}, fmt.Errorf("saving record: %w", err)
	}
	s.afterMutation(ctx)
	return Outcome{Message: "Record saved."}, nil
}

// UpdateRecord replaces the content of record id, keeping its ID and
// creation timestamp. A record that no longer exists is created anew.
func (s *Service) UpdateRecord(ctx context.Context, id int64, in RecordInput) (Outcome, error) {
	rec, err := in.Validate()
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return Outcome{}, model.ErrStoreUnavailable
	}

	existing, err := s.store.GetRecord(ctx, id)
	switch {
	case errors.Is(err, model.ErrRecordNotFound):
		rec.Timestamp = s.now()
		if _, err := s.store.CreateRecord(ctx, rec); err != nil {
			return Outcome{}, fmt.Errorf("saving record: %w", err)
		}
	case err != nil:
		return Outcome{}, fmt.Errorf("updating record %d: %w", id, err)
	default:
		rec.ID = existing.ID
		rec.Timestamp = existing.Timestamp
		if err := s.store.UpdateRecord(ctx, rec); err != nil {
			return Outcome{}, fmt.Errorf("updating record %d: %w", id, err)
		}
	}

	s.afterMutation(ctx)
	return Outcome{Message: "Record updated."}, nil
}

// DeleteRecord removes record id. Deleting a record that is already gone
// succeeds.
func (s *Service) DeleteRecord(ctx context.Context, id int64) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return Outcome{}, model.ErrStoreUnavailable
	}
	err := s.store.DeleteRecord(ctx, id)
	if err != nil && !errors.Is(err, model.ErrRecordNotFound) {
		return Outcome{}, fmt.Errorf("deleting record %d: %w", id, err)
	}
	s.afterMutation(ctx)
	return Outcome{Message: "Record deleted."}, nil
}

// DeleteAll empties the log.
func (s *Service) DeleteAll(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return Outcome{}, model.ErrStoreUnavailable
	}
	if err := s.store.DeleteAllRecords(ctx); err != nil {
		return Outcome{}, fmt.Errorf("deleting all records: %w", err)
	}
	s.afterMutation(ctx)
	return Outcome{Message: "All records deleted."}, nil
}

// ImportRows stores the rows whose date+odometer key is not already in the
// log. Rows are only checked against existing records, not against each
// other. All new rows are inserted in one transaction.
func (s *Service) ImportRows(ctx context.Context, rows []model.FuelRecord) (ImportResult, error) {
	result := ImportResult{Parsed: len(rows)}
	if len(rows) == 0 {
		return result, model.ErrNoValidRows
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return result, model.ErrStoreUnavailable
	}

	existing := make(map[model.RecordKey]bool, len(s.records))
	for _, r := range s.records {
		existing[r.Key()] = true
	}

	now := s.now()
	var fresh []model.FuelRecord
	for _, r := range rows {
		if existing[r.Key()] {
			result.Duplicates++
			continue
		}
		r.ID = 0
		if r.Timestamp.IsZero() {
			r.Timestamp = now
		}
		fresh = append(fresh, r)
	}
	if len(fresh) == 0 {
		return result, model.ErrNoNewRows
	}

	if _, err := s.store.CreateRecords(ctx, fresh); err != nil {
		return result, fmt.Errorf("importing records: %w", err)
	}
	result.Imported = len(fresh)

	s.afterMutation(ctx)
	return result, nil
}

// ImportCSV parses r and imports its rows.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	rows, err := csvio.Parse(r)
	if errors.Is(err, csvio.ErrEmpty) {
		return ImportResult{}, fmt.Errorf("%w: %w", model.ErrNoValidRows, err)
	}
	if err != nil {
		return ImportResult{}, err
	}
	return s.ImportRows(ctx, rows)
}

// ExportAll writes the derived log as CSV and returns the number of rows.
func (s *Service) ExportAll(w io.Writer) (int, error) {
	view := s.View()
	if len(view) == 0 {
		return 0, model.ErrNoRecords
	}
	if err := csvio.Export(w, view); err != nil {
		return 0, err
	}
	return len(view), nil
}
