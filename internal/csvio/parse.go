package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/nhle/cub-fuel-log/internal/model"
)

// ErrEmpty is returned when the input has no data row after the header.
var ErrEmpty = errors.New("csv has no data rows")

type column int

const (
	colDate column = iota
	colOdometer
	colFuel
	colMemo
)

var (
	dateKeywords = []string{"日付", "date"}
	memoKeywords = []string{"メモ", "備考", "note", "memo"}

	odometerStrong = []string{"積算", "オド", "メータ", "odo"}
	odometerWeak   = []string{"距離", "distance"}

	fuelStrong = []string{"給油", "燃料", "fuel", "liter", "litre"}
	fuelWeak   = []string{"量", "l", "ℓ"}
)

// layout maps each logical field to a column index, or -1 when absent.
type layout [4]int

// sniffLayout locates columns by header keywords. Each column is claimed at
// most once and the leftmost match wins. Strong odometer and fuel keywords
// are tried before the weak ones so that an exported 走行距離 column never
// shadows 積算距離.
func sniffLayout(header []string) layout {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.ToLower(normalize(h))
	}

	l := layout{-1, -1, -1, -1}
	claimed := make(map[int]bool)

	claim := func(col column, keywords []string) {
		if l[col] >= 0 {
			return
		}
		for i, name := range names {
			if claimed[i] || !containsAny(name, keywords) {
				continue
			}
			l[col] = i
			claimed[i] = true
			return
		}
	}

	claim(colDate, dateKeywords)
	claim(colMemo, memoKeywords)
	claim(colOdometer, odometerStrong)
	claim(colFuel, fuelStrong)
	claim(colOdometer, odometerWeak)
	claim(colFuel, fuelWeak)

	if l[colDate] < 0 {
		l[colDate] = 0
	}
	if l[colOdometer] < 0 {
		l[colOdometer] = 1
	}
	if l[colFuel] < 0 {
		l[colFuel] = 2
	}
	return l
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Parse reads CSV data and returns the rows that form valid records. Each
// line is parsed on its own, so a malformed line costs only that row. Rows
// without a date, or whose odometer or fuel is not a non-negative number,
// are skipped. Timestamps are set to the time of parsing.
func Parse(r io.Reader) ([]model.FuelRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	text := strings.TrimPrefix(string(data), bom)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil, ErrEmpty
	}

	l := sniffLayout(splitLine(lines[0]))
	now := time.Now().UTC()

	var records []model.FuelRecord
	for i, line := range lines[1:] {
		rec, ok := parseRow(splitLine(line), l, i+2)
		if !ok {
			continue
		}
		rec.Timestamp = now
		records = append(records, rec)
	}
	return records, nil
}

// splitLine parses a single CSV line. A quote left open runs to the end of
// the line; a line that cannot be read at all yields no fields.
func splitLine(line string) []string {
	reader := csv.NewReader(strings.NewReader(line))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	fields, err := reader.Read()
	if err != nil {
		return nil
	}
	return fields
}

func parseRow(row []string, l layout, rowNum int) (model.FuelRecord, bool) {
	cell := func(col column) string {
		i := l[col]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rawDate := cell(colDate)
	rawOdometer := cell(colOdometer)
	if rawDate == "" && rawOdometer == "" {
		return model.FuelRecord{}, false
	}

	date := NormalizeDate(rawDate)
	if date == "" {
		return model.FuelRecord{}, false
	}

	odometer, ok := ParseNumber(rawOdometer)
	if !ok || odometer < 0 {
		return model.FuelRecord{}, false
	}
	fuel, ok := ParseNumber(cell(colFuel))
	if !ok || fuel < 0 {
		return model.FuelRecord{}, false
	}

	memo := fmt.Sprintf("CSV row %d", rowNum)
	if l[colMemo] >= 0 {
		memo = cell(colMemo)
	}

	return model.FuelRecord{
		Date:     date,
		Odometer: odometer,
		Fuel:     fuel,
		Memo:     memo,
	}, true
}

// normalize folds full-width characters to their ASCII forms.
func normalize(s string) string {
	return width.Fold.String(s)
}

var ymd = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)

// NormalizeDate folds full-width characters, turns '/' and '.' separators
// into '-' and zero-pads one-digit months and days. Anything that is not a
// year-month-day triple is returned with only the separators replaced.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(normalize(s))
	s = strings.NewReplacer("/", "-", ".", "-").Replace(s)

	m := ymd.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("%s-%02d-%02d", m[1], month, day)
}

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.\-]`)
	numericPrefix = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)`)
)

// ParseNumber cleans a spreadsheet cell and parses its leading numeric
// prefix: "1,234.5 km" reads as 1234.5 and "12.3.4" as 12.3.
func ParseNumber(s string) (float64, bool) {
	s = normalize(s)
	s = strings.ReplaceAll(s, ",", "")
	s = nonNumeric.ReplaceAllString(s, "")

	prefix := numericPrefix.FindString(s)
	if prefix == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseEntryNumber parses a typed-in amount. Only full-width folding and
// thousands separators are forgiven: the value must start with a number, so
// "1,200 km" reads as 1200 while "abc123" is rejected.
func ParseEntryNumber(s string) (float64, bool) {
	s = strings.TrimSpace(normalize(s))
	s = strings.ReplaceAll(s, ",", "")

	prefix := numericPrefix.FindString(s)
	if prefix == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
