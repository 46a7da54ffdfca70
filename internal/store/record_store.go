package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/cub-fuel-log/internal/model"
)

const recordColumns = "id, date, odometer, fuel, memo, timestamp"

const insertRecordSQL = `
	INSERT INTO fuel_records (date, odometer, fuel, memo, timestamp)
	VALUES (?, ?, ?, ?, ?)`

// CreateRecord inserts a new fuel record and returns its assigned ID.
func (s *SQLiteStore) CreateRecord(ctx context.Context, rec model.FuelRecord) (int64, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, insertRecordSQL,
		rec.Date, rec.Odometer, rec.Fuel, rec.Memo, rec.Timestamp.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("creating record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted record id: %w", err)
	}
	return id, nil
}

// CreateRecords inserts a batch of records in one transaction.
func (s *SQLiteStore) CreateRecords(ctx context.Context, recs []model.FuelRecord) ([]int64, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, insertRecordSQL)
	if err != nil {
		return nil, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	ids := make([]int64, 0, len(recs))
	for i, rec := range recs {
		if rec.Timestamp.IsZero() {
			rec.Timestamp = now
		}
		result, err := stmt.ExecContext(ctx,
			rec.Date, rec.Odometer, rec.Fuel, rec.Memo, rec.Timestamp.UTC(),
		)
		if err != nil {
			return nil, fmt.Errorf("inserting record %d of %d: %w", i+1, len(recs), err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading inserted record id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing records: %w", err)
	}
	return ids, nil
}

// GetRecord retrieves a single record by ID.
func (s *SQLiteStore) GetRecord(ctx context.Context, id int64) (*model.FuelRecord, error) {
	var rec model.FuelRecord
	err := s.db.GetContext(ctx, &rec,
		"SELECT "+recordColumns+" FROM fuel_records WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting record %d: %w", id, model.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting record %d: %w", id, err)
	}
	return &rec, nil
}

// UpdateRecord replaces the content fields of an existing record.
func (s *SQLiteStore) UpdateRecord(ctx context.Context, rec model.FuelRecord) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE fuel_records SET
			date = ?, odometer = ?, fuel = ?, memo = ?, timestamp = ?
		WHERE id = ?`,
		rec.Date, rec.Odometer, rec.Fuel, rec.Memo, rec.Timestamp.UTC(),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("updating record %d: %w", rec.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating record %d: %w", rec.ID, model.ErrRecordNotFound)
	}
	return nil
}

// DeleteRecord removes a record by ID.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM fuel_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting record %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("deleting record %d: %w", id, model.ErrRecordNotFound)
	}
	return nil
}

// DeleteAllRecords empties the log.
func (s *SQLiteStore) DeleteAllRecords(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM fuel_records"); err != nil {
		return fmt.Errorf("deleting all records: %w", err)
	}
	return nil
}

// ListRecords returns every stored record ordered by ID.
func (s *SQLiteStore) ListRecords(ctx context.Context) ([]model.FuelRecord, error) {
	var recs []model.FuelRecord
	err := s.db.SelectContext(ctx, &recs,
		"SELECT "+recordColumns+" FROM fuel_records ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return recs, nil
}

// ListRecordsBetween returns the records dated within [from, to].
func (s *SQLiteStore) ListRecordsBetween(
	ctx context.Context,
	from, to string,
) ([]model.FuelRecord, error) {
	var conditions []string
	var args []interface{}

	if from != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, from)
	}
	if to != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, to)
	}

	query := "SELECT " + recordColumns + " FROM fuel_records"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date, odometer, id"

	var recs []model.FuelRecord
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("listing records between %q and %q: %w", from, to, err)
	}
	return recs, nil
}
