package logbook

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/cub-fuel-log/internal/csvio"
	"github.com/nhle/cub-fuel-log/internal/model"
)

// RecordInput holds the raw field values of an entry form.
type RecordInput struct {
	Date     string `json:"date"`
	Odometer string `json:"odometer"`
	Fuel     string `json:"fuel"`
	Memo     string `json:"memo"`
}

// InputFromRecord pre-fills an input from a stored record, for editing.
func InputFromRecord(r model.FuelRecord) RecordInput {
	return RecordInput{
		Date:     r.Date,
		Odometer: formatFloat(r.Odometer),
		Fuel:     formatFloat(r.Fuel),
		Memo:     r.Memo,
	}
}

// ValidationError describes an input field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match validation failures with model.ErrInvalidRecord.
func (e *ValidationError) Unwrap() error {
	return model.ErrInvalidRecord
}

// Validate converts raw input to a record without ID or timestamp.
func (in RecordInput) Validate() (model.FuelRecord, error) {
	date := csvio.NormalizeDate(in.Date)
	if date == "" {
		return model.FuelRecord{}, &ValidationError{Field: "date", Message: "is required"}
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return model.FuelRecord{}, &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}

	if strings.TrimSpace(in.Odometer) == "" {
		return model.FuelRecord{}, &ValidationError{Field: "odometer", Message: "is required"}
	}
	odometer, ok := csvio.ParseEntryNumber(in.Odometer)
	if !ok {
		return model.FuelRecord{}, &ValidationError{Field: "odometer", Message: "must be a number"}
	}
	if odometer < 0 {
		return model.FuelRecord{}, &ValidationError{Field: "odometer", Message: "must not be negative"}
	}

	// An unreadable fuel amount is recorded as no fuel.
	fuel, _ := csvio.ParseEntryNumber(in.Fuel)
	if fuel < 0 {
		return model.FuelRecord{}, &ValidationError{Field: "fuel", Message: "must not be negative"}
	}

	return model.FuelRecord{
		Date:     date,
		Odometer: odometer,
		Fuel:     fuel,
		Memo:     strings.TrimSpace(in.Memo),
	}, nil
}

// formatFloat renders v with the fewest digits that parse back to v.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
