package model

import "time"

// DateLayout is the calendar date form used for FuelRecord.Date.
const DateLayout = "2006-01-02"

// FuelRecord is one refuelling event as persisted by the store.
type FuelRecord struct {
	// ID is assigned by the store on creation and never changes.
	ID int64 `json:"id" db:"id"`

	// Date is the refuelling day in YYYY-MM-DD form.
	Date string `json:"date" db:"date"`

	// Odometer is the cumulative distance reading at the time of refuelling.
	Odometer float64 `json:"odometer" db:"odometer"`

	// Fuel is the amount added, in liters.
	Fuel float64 `json:"fuel" db:"fuel"`

	Memo string `json:"memo" db:"memo"`

	// Timestamp is the creation or import instant. It is informational
	// only and plays no part in ordering.
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Key returns the date+odometer pair used to detect duplicate imports.
func (r FuelRecord) Key() RecordKey {
	return RecordKey{Date: r.Date, Odometer: r.Odometer}
}

// RecordKey identifies a record by its natural date+odometer pair.
type RecordKey struct {
	Date     string
	Odometer float64
}

// EnrichedRecord is a FuelRecord annotated with values derived from its
// position in the ordered log. It is rebuilt on every read and never stored.
type EnrichedRecord struct {
	FuelRecord

	// Distance is the odometer delta to the previous record, or 0.
	Distance float64 `json:"distance"`

	// TotalFuel is the fuel attributed to the interval ending at this record.
	TotalFuel float64 `json:"total_fuel"`

	// Efficiency is Distance/TotalFuel in km/L, or 0 when not computable.
	Efficiency float64 `json:"efficiency"`

	// IsFirst is set when the record has no valid preceding interval.
	IsFirst bool `json:"is_first"`
}
