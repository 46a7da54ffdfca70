// Package csvio reads and writes the fuel log's tabular interchange format.
//
// Exports are UTF-8 with a byte-order mark so spreadsheet applications pick
// the right encoding. Imports are lenient: column positions are sniffed from
// header keywords and unparsable rows are skipped rather than reported.
package csvio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nhle/cub-fuel-log/internal/model"
)

const bom = "\ufeff"

// Header is the first line of every export.
var Header = []string{"日付", "積算距離", "走行距離", "給油量", "燃費", "メモ"}

// FileName is the suggested name for downloaded exports.
const FileName = "cub_log.csv"

// Export writes enriched records, in the order given, as CSV.
func Export(w io.Writer, enriched []model.EnrichedRecord) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(bom)
	bw.WriteString(strings.Join(Header, ","))
	bw.WriteByte('\n')

	for _, r := range enriched {
		bw.WriteString(strings.Join(exportRow(r), ","))
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

func exportRow(r model.EnrichedRecord) []string {
	distance := r.Distance
	efficiency := ""
	if r.IsFirst {
		distance = 0
	} else {
		efficiency = strconv.FormatFloat(r.Efficiency, 'f', 2, 64)
	}

	return []string{
		r.Date,
		formatNumber(r.Odometer),
		formatNumber(distance),
		strconv.FormatFloat(r.TotalFuel, 'f', 2, 64),
		efficiency,
		quote(r.Memo),
	}
}

// formatNumber renders v with the fewest digits that round-trip.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// quote always wraps the memo in double quotes, doubling embedded quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
