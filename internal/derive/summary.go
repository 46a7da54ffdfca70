package derive

import (
	"strings"

	"github.com/nhle/cub-fuel-log/internal/model"
)

// Summary aggregates one month of the enriched log.
type Summary struct {
	Month string `json:"month"`

	// Records counts every record dated in the month, including first
	// records that contribute nothing to the totals.
	Records int `json:"records"`

	TotalDistance float64 `json:"total_distance"`
	TotalFuel     float64 `json:"total_fuel"`

	// AverageEfficiency is only meaningful when HasAverage is true.
	AverageEfficiency float64 `json:"average_efficiency"`
	HasAverage        bool    `json:"has_average"`
}

// MonthlySummary totals the intervals of records whose date starts with
// month ("YYYY-MM"). Records flagged IsFirst, or without a positive
// distance and fuel amount, are counted but excluded from the totals.
func MonthlySummary(enriched []model.EnrichedRecord, month string) Summary {
	s := Summary{Month: month}
	if month == "" {
		return s
	}

	for _, r := range enriched {
		if !strings.HasPrefix(r.Date, month) {
			continue
		}
		s.Records++
		if r.IsFirst || r.Distance <= 0 || r.TotalFuel <= 0 {
			continue
		}
		s.TotalDistance += r.Distance
		s.TotalFuel += r.TotalFuel
	}

	if s.TotalDistance > 0 && s.TotalFuel > 0 {
		s.AverageEfficiency = s.TotalDistance / s.TotalFuel
		s.HasAverage = true
	}

	return s
}
