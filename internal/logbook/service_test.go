package logbook

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nhle/cub-fuel-log/internal/model"
	"github.com/nhle/cub-fuel-log/internal/store"
	"github.com/nhle/cub-fuel-log/tests/testutil"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc := New(testutil.NewTestStore(t))
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return svc
}

func mustAdd(t *testing.T, svc *Service, date, odo, fuel string) {
	t.Helper()
	if _, err := svc.AddRecord(context.Background(), RecordInput{Date: date, Odometer: odo, Fuel: fuel}); err != nil {
		t.Fatalf("AddRecord(%s, %s): %v", date, odo, err)
	}
}

// failingStore rejects every write.
type failingStore struct {
	store.RecordStore
}

var errDiskFull = errors.New("disk full")

func (failingStore) CreateRecord(context.Context, model.FuelRecord) (int64, error) {
	return 0, errDiskFull
}

// ─── Validation ─────────────────────────────────────────────────────────────

func TestRecordInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      RecordInput
		field   string
		wantOdo float64
		wantFue float64
	}{
		{"valid", RecordInput{Date: "2024-01-15", Odometer: "1200", Fuel: "8.5"}, "", 1200, 8.5},
		{"slash date", RecordInput{Date: "2024/1/5", Odometer: "1200"}, "", 1200, 0},
		{"empty fuel", RecordInput{Date: "2024-01-15", Odometer: "1200", Fuel: ""}, "", 1200, 0},
		{"garbage fuel", RecordInput{Date: "2024-01-15", Odometer: "1200", Fuel: "n/a"}, "", 1200, 0},
		{"missing date", RecordInput{Odometer: "1200"}, "date", 0, 0},
		{"bad date", RecordInput{Date: "2024-13-40", Odometer: "1200"}, "date", 0, 0},
		{"missing odometer", RecordInput{Date: "2024-01-15"}, "odometer", 0, 0},
		{"text odometer", RecordInput{Date: "2024-01-15", Odometer: "abc"}, "odometer", 0, 0},
		{"letters before digits", RecordInput{Date: "2024-01-15", Odometer: "abc123"}, "odometer", 0, 0},
		{"interleaved letters", RecordInput{Date: "2024-01-15", Odometer: "a1b2"}, "odometer", 0, 0},
		{"unit prefix", RecordInput{Date: "2024-01-15", Odometer: "km 1,2x3"}, "odometer", 0, 0},
		{"thousands and unit", RecordInput{Date: "2024-01-15", Odometer: "1,200 km", Fuel: "8.5L"}, "", 1200, 8.5},
		{"full width odometer", RecordInput{Date: "2024-01-15", Odometer: "１２００"}, "", 1200, 0},
		{"letters before fuel", RecordInput{Date: "2024-01-15", Odometer: "1200", Fuel: "x5"}, "", 1200, 0},
		{"negative odometer", RecordInput{Date: "2024-01-15", Odometer: "-1"}, "odometer", 0, 0},
		{"negative fuel", RecordInput{Date: "2024-01-15", Odometer: "10", Fuel: "-2"}, "fuel", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := tt.in.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				if rec.Odometer != tt.wantOdo || rec.Fuel != tt.wantFue {
					t.Errorf("record = %+v, want odometer %v fuel %v", rec, tt.wantOdo, tt.wantFue)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
			if !errors.Is(err, model.ErrInvalidRecord) {
				t.Error("validation error does not match ErrInvalidRecord")
			}
		})
	}
}

func TestInputFromRecord_KeepsPrecision(t *testing.T) {
	rec := model.FuelRecord{Date: "2024-01-15", Odometer: 12345.6789, Fuel: 3.14159, Memo: "m"}

	in := InputFromRecord(rec)
	if in.Odometer != "12345.6789" || in.Fuel != "3.14159" {
		t.Errorf("input = %+v, want odometer 12345.6789 fuel 3.14159", in)
	}

	got, err := in.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.Key() != rec.Key() || got.Fuel != rec.Fuel {
		t.Errorf("round trip = %+v, want %+v", got, rec)
	}
}

func TestAddRecord_InvalidNotPersisted(t *testing.T) {
	svc := newService(t)

	_, err := svc.AddRecord(context.Background(), RecordInput{Date: "", Odometer: "100"})
	if !errors.Is(err, model.ErrInvalidRecord) {
		t.Fatalf("err = %v, want ErrInvalidRecord", err)
	}
	if n := len(svc.View()); n != 0 {
		t.Errorf("view has %d records, want 0", n)
	}
}

// ─── Mutations ──────────────────────────────────────────────────────────────

func TestAddRecord_RebuildsView(t *testing.T) {
	svc := newService(t)

	mustAdd(t, svc, "2024-01-01", "1000", "")
	mustAdd(t, svc, "2024-01-15", "1200", "8")
	mustAdd(t, svc, "2024-01-10", "1100", "5")

	view := svc.View()
	if len(view) != 3 {
		t.Fatalf("len = %d, want 3", len(view))
	}
	if view[1].Date != "2024-01-10" || view[1].Distance != 100 || view[1].Efficiency != 20 {
		t.Errorf("inserted = %+v, want distance 100 efficiency 20", view[1])
	}
	if view[2].Distance != 100 {
		t.Errorf("last distance = %v, want 100", view[2].Distance)
	}

	latest, ok := svc.Latest()
	if !ok || latest.Date != "2024-01-15" {
		t.Errorf("Latest = %+v, want 2024-01-15", latest)
	}
}

func TestUpdateRecord_KeepsIDAndTimestamp(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	mustAdd(t, svc, "2024-01-01", "1000", "")

	before := svc.View()[0]
	_, err := svc.UpdateRecord(ctx, before.ID, RecordInput{Date: "2024-01-02", Odometer: "1005", Fuel: "3", Memo: "edited"})
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}

	after := svc.View()
	if len(after) != 1 {
		t.Fatalf("len = %d, want 1", len(after))
	}
	got := after[0]
	if got.ID != before.ID {
		t.Errorf("ID = %d, want %d", got.ID, before.ID)
	}
	if !got.Timestamp.Equal(before.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, before.Timestamp)
	}
	if got.Date != "2024-01-02" || got.Odometer != 1005 || got.Memo != "edited" {
		t.Errorf("record = %+v, want edited fields", got)
	}
}

func TestUpdateRecord_MissingIDCreates(t *testing.T) {
	svc := newService(t)

	if _, err := svc.UpdateRecord(context.Background(), 77, RecordInput{Date: "2024-01-02", Odometer: "10"}); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if n := len(svc.View()); n != 1 {
		t.Errorf("len = %d, want 1", n)
	}
}

func TestDeleteRecord(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	mustAdd(t, svc, "2024-01-01", "1000", "")
	mustAdd(t, svc, "2024-01-10", "1100", "5")

	id := svc.View()[0].ID
	if _, err := svc.DeleteRecord(ctx, id); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	view := svc.View()
	if len(view) != 1 || !view[0].IsFirst {
		t.Errorf("view = %+v, want single first record", view)
	}

	if _, err := svc.DeleteRecord(ctx, id); err != nil {
		t.Errorf("deleting a missing record: %v", err)
	}
}

func TestDeleteAll(t *testing.T) {
	svc := newService(t)
	mustAdd(t, svc, "2024-01-01", "1000", "")

	if _, err := svc.DeleteAll(context.Background()); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if n := len(svc.View()); n != 0 {
		t.Errorf("len = %d, want 0", n)
	}
}

// ─── Import / Export ────────────────────────────────────────────────────────

func TestImportRows_Dedupes(t *testing.T) {
	svc := newService(t)
	mustAdd(t, svc, "2024-01-01", "1000", "")

	rows := []model.FuelRecord{
		testutil.Record("2024-01-01", 1000, 9, "dup"),
		testutil.Record("2024-01-10", 1100, 5, "new"),
		testutil.Record("2024-01-10", 1100, 6, "same key in batch"),
	}
	res, err := svc.ImportRows(context.Background(), rows)
	if err != nil {
		t.Fatalf("ImportRows: %v", err)
	}
	if res.Parsed != 3 || res.Imported != 2 || res.Duplicates != 1 {
		t.Errorf("result = %+v, want parsed 3 imported 2 duplicates 1", res)
	}
	if n := len(svc.View()); n != 3 {
		t.Errorf("len = %d, want 3", n)
	}
}

func TestImportRows_NothingNew(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	mustAdd(t, svc, "2024-01-01", "1000", "")

	if _, err := svc.ImportRows(ctx, nil); !errors.Is(err, model.ErrNoValidRows) {
		t.Errorf("empty import err = %v, want ErrNoValidRows", err)
	}
	_, err := svc.ImportRows(ctx, []model.FuelRecord{testutil.Record("2024-01-01", 1000, 0, "")})
	if !errors.Is(err, model.ErrNoNewRows) {
		t.Errorf("duplicate import err = %v, want ErrNoNewRows", err)
	}
}

func TestExportThenImport_NoReinsert(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	mustAdd(t, svc, "2024-01-01", "1000", "")
	mustAdd(t, svc, "2024-01-15", "1200", "8")

	var buf bytes.Buffer
	n, err := svc.ExportAll(&buf)
	if err != nil || n != 2 {
		t.Fatalf("ExportAll = %d, %v; want 2, nil", n, err)
	}

	res, err := svc.ImportCSV(ctx, &buf)
	if !errors.Is(err, model.ErrNoNewRows) {
		t.Fatalf("re-import err = %v, want ErrNoNewRows", err)
	}
	if res.Duplicates != 2 {
		t.Errorf("Duplicates = %d, want 2", res.Duplicates)
	}
}

func TestImportCSV_SkipsNegativeRows(t *testing.T) {
	svc := newService(t)
	in := "日付,積算距離,給油量\n" +
		"2024-01-01,1000,5\n" +
		"2024-01-02,1100,-3\n" +
		"2024-01-03,-1200,4\n" +
		"2024-01-04,1300,6\n"

	res, err := svc.ImportCSV(context.Background(), strings.NewReader(in))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if res.Parsed != 2 || res.Imported != 2 {
		t.Errorf("result = %+v, want parsed 2 imported 2", res)
	}
	if n := len(svc.View()); n != 2 {
		t.Errorf("len = %d, want 2", n)
	}
}

func TestImportCSV_UnclosedQuoteKeepsLaterRows(t *testing.T) {
	svc := newService(t)
	in := "date,odometer,fuel,memo\n" +
		"2024-01-01,1000,5,\"oops\n" +
		"2024-01-02,1100,4,ok\n" +
		"2024-01-03,1200,6,ok\n"

	if _, err := svc.ImportCSV(context.Background(), strings.NewReader(in)); err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	view := svc.View()
	if len(view) < 2 {
		t.Fatalf("len = %d, want the rows after the broken one", len(view))
	}
	if last := view[len(view)-1]; last.Date != "2024-01-03" {
		t.Errorf("last date = %q, want 2024-01-03", last.Date)
	}
}

func TestImportCSV_Empty(t *testing.T) {
	svc := newService(t)
	_, err := svc.ImportCSV(context.Background(), strings.NewReader("日付,距離,給油量\n"))
	if !errors.Is(err, model.ErrNoValidRows) {
		t.Errorf("err = %v, want ErrNoValidRows", err)
	}
}

func TestExportAll_Empty(t *testing.T) {
	svc := newService(t)
	if _, err := svc.ExportAll(&bytes.Buffer{}); !errors.Is(err, model.ErrNoRecords) {
		t.Errorf("err = %v, want ErrNoRecords", err)
	}
}

// ─── Preview / Summary ──────────────────────────────────────────────────────

func TestPreview(t *testing.T) {
	svc := newService(t)
	mustAdd(t, svc, "2024-01-01", "1000", "")
	mustAdd(t, svc, "2024-01-15", "1200", "8")

	p, ok := svc.Preview(RecordInput{Date: "2024-02-01", Odometer: "1500", Fuel: "10"}, 0)
	if !ok || p.Distance != 300 || p.Efficiency != 30 {
		t.Errorf("Preview = %+v (%v), want distance 300 efficiency 30", p, ok)
	}

	if _, ok := svc.Preview(RecordInput{Date: "2024-02-01", Odometer: "1500"}, 0); ok {
		t.Error("preview without fuel is computable")
	}

	editing := svc.View()[1]
	p, ok = svc.Preview(RecordInput{Date: "2024-01-15", Odometer: "1250", Fuel: "10"}, editing.ID)
	if !ok || p.Distance != 250 {
		t.Errorf("edit Preview = %+v (%v), want distance 250", p, ok)
	}
}

func TestSummary(t *testing.T) {
	svc := newService(t)
	mustAdd(t, svc, "2024-01-01", "1000", "")
	mustAdd(t, svc, "2024-01-15", "1200", "8")
	mustAdd(t, svc, "2024-02-01", "1400", "10")

	got := svc.Summary("2024-01")
	if got.Records != 2 || got.TotalDistance != 200 || got.AverageEfficiency != 25 {
		t.Errorf("Summary = %+v", got)
	}
}

// ─── Storage failures ───────────────────────────────────────────────────────

func TestNilStore(t *testing.T) {
	svc := New(nil)
	ctx := context.Background()

	if err := svc.Load(ctx); !errors.Is(err, model.ErrStoreUnavailable) {
		t.Errorf("Load err = %v, want ErrStoreUnavailable", err)
	}
	if _, err := svc.AddRecord(ctx, RecordInput{Date: "2024-01-01", Odometer: "1"}); !errors.Is(err, model.ErrStoreUnavailable) {
		t.Errorf("AddRecord err = %v, want ErrStoreUnavailable", err)
	}
	if _, err := svc.DeleteAll(ctx); !errors.Is(err, model.ErrStoreUnavailable) {
		t.Errorf("DeleteAll err = %v, want ErrStoreUnavailable", err)
	}
	if v := svc.View(); len(v) != 0 {
		t.Errorf("View = %v, want empty", v)
	}
}

func TestFailingStore_KeepsView(t *testing.T) {
	svc := newService(t)
	mustAdd(t, svc, "2024-01-01", "1000", "")

	svc.store = failingStore{RecordStore: svc.store}
	_, err := svc.AddRecord(context.Background(), RecordInput{Date: "2024-01-02", Odometer: "1100"})
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("err = %v, want errDiskFull", err)
	}
	if n := len(svc.View()); n != 1 {
		t.Errorf("len = %d, want previous view of 1", n)
	}
}

func TestBetween_KeepsDerivedContext(t *testing.T) {
	svc := newService(t)
	mustAdd(t, svc, "2024-01-01", "1000", "")
	mustAdd(t, svc, "2024-02-01", "1200", "8")
	mustAdd(t, svc, "2024-03-01", "1500", "10")

	got, err := svc.Between(context.Background(), "2024/2/1", "")
	if err != nil {
		t.Fatalf("Between: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Date != "2024-02-01" || got[0].IsFirst || got[0].Distance != 200 {
		t.Errorf("first in range = %+v, want distance 200 from the earlier record", got[0])
	}

	got, err = svc.Between(context.Background(), "", "2024-01-31")
	if err != nil {
		t.Fatalf("Between: %v", err)
	}
	if len(got) != 1 || !got[0].IsFirst {
		t.Errorf("got = %+v, want only the first record", got)
	}
}
