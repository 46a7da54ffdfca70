package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/cub-fuel-log/internal/model"
	"github.com/nhle/cub-fuel-log/tests/testutil"
)

func TestCreateAndGetRecord(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRecord(ctx, testutil.Record("2024-01-15", 1200, 8.5, "shell"))
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d, want > 0", id)
	}

	got, err := s.GetRecord(ctx, id)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Date != "2024-01-15" || got.Odometer != 1200 || got.Fuel != 8.5 || got.Memo != "shell" {
		t.Errorf("GetRecord = %+v, want stored fields", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetRecord(context.Background(), 42)
	if !errors.Is(err, model.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestCreateRecords_Batch(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	ids, err := s.CreateRecords(ctx, []model.FuelRecord{
		testutil.Record("2024-01-01", 1000, 0, "a"),
		testutil.Record("2024-01-10", 1100, 5, "b"),
		testutil.Record("2024-01-20", 1250, 6, "c"),
	})
	if err != nil {
		t.Fatalf("CreateRecords: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("len(ids) = %d, want 3", len(ids))
	}

	all, err := s.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, r := range all {
		if r.ID != ids[i] {
			t.Errorf("all[%d].ID = %d, want %d", i, r.ID, ids[i])
		}
	}
}

func TestCreateRecords_RollsBackOnFailure(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.CreateRecords(ctx, []model.FuelRecord{
		testutil.Record("2024-01-01", 1000, 0, "ok"),
		testutil.Record("2024-01-02", -5, 0, "violates check"),
	})
	if err == nil {
		t.Fatal("CreateRecords succeeded with a negative odometer")
	}

	all, err := s.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("len = %d after rollback, want 0", len(all))
	}
}

func TestUpdateRecord(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, _ := s.CreateRecord(ctx, testutil.Record("2024-01-15", 1200, 8, ""))
	rec, _ := s.GetRecord(ctx, id)
	rec.Odometer = 1210
	rec.Memo = "fixed typo"

	if err := s.UpdateRecord(ctx, *rec); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	got, _ := s.GetRecord(ctx, id)
	if got.Odometer != 1210 || got.Memo != "fixed typo" {
		t.Errorf("after update = %+v", got)
	}

	missing := *rec
	missing.ID = 999
	if err := s.UpdateRecord(ctx, missing); !errors.Is(err, model.ErrRecordNotFound) {
		t.Errorf("update missing: err = %v, want ErrRecordNotFound", err)
	}
}

func TestDeleteRecord(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, _ := s.CreateRecord(ctx, testutil.Record("2024-01-15", 1200, 8, ""))
	if err := s.DeleteRecord(ctx, id); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if err := s.DeleteRecord(ctx, id); !errors.Is(err, model.ErrRecordNotFound) {
		t.Errorf("second delete: err = %v, want ErrRecordNotFound", err)
	}
}

func TestDeleteAllRecords(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	s.CreateRecord(ctx, testutil.Record("2024-01-01", 1000, 0, ""))
	s.CreateRecord(ctx, testutil.Record("2024-01-02", 1100, 5, ""))

	if err := s.DeleteAllRecords(ctx); err != nil {
		t.Fatalf("DeleteAllRecords: %v", err)
	}
	all, _ := s.ListRecords(ctx)
	if len(all) != 0 {
		t.Errorf("len = %d, want 0", len(all))
	}
}

func TestListRecordsBetween(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	s.CreateRecords(ctx, []model.FuelRecord{
		testutil.Record("2024-02-03", 1400, 10, ""),
		testutil.Record("2024-01-01", 1000, 0, ""),
		testutil.Record("2024-01-31", 1300, 7, ""),
		testutil.Record("2024-01-15", 1200, 8, ""),
	})

	tests := []struct {
		name     string
		from, to string
		want     []string
	}{
		{"january", "2024-01-01", "2024-01-31", []string{"2024-01-01", "2024-01-15", "2024-01-31"}},
		{"open start", "", "2024-01-10", []string{"2024-01-01"}},
		{"open end", "2024-02-01", "", []string{"2024-02-03"}},
		{"unbounded", "", "", []string{"2024-01-01", "2024-01-15", "2024-01-31", "2024-02-03"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListRecordsBetween(ctx, tt.from, tt.to)
			if err != nil {
				t.Fatalf("ListRecordsBetween: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, date := range tt.want {
				if got[i].Date != date {
					t.Errorf("got[%d].Date = %s, want %s", i, got[i].Date, date)
				}
			}
		})
	}
}
