package derive

import (
	"math"
	"sort"

	"github.com/nhle/cub-fuel-log/internal/model"
)

// Preview is the forecast for a record that has not been saved yet.
type Preview struct {
	Distance   float64 `json:"distance"`
	Fuel       float64 `json:"fuel"`
	Efficiency float64 `json:"efficiency"`
}

// PreviewInsertion places a transient candidate into the ordered log and
// reports the interval it would close. The candidate goes after every
// existing record with the same date and odometer, as a new entry would.
//
// ok is false when the preview is not computable: the candidate would be
// first, its distance is not strictly positive, or fuel is not positive.
// records is never modified.
func PreviewInsertion(
	records []model.FuelRecord,
	date string,
	odometer float64,
	fuel float64,
) (Preview, bool) {
	if date == "" || math.IsNaN(odometer) || math.IsInf(odometer, 0) {
		return Preview{}, false
	}
	if math.IsNaN(fuel) || fuel <= 0 {
		return Preview{}, false
	}

	sorted := Sort(records)
	idx := sort.Search(len(sorted), func(i int) bool {
		r := sorted[i]
		if r.Date != date {
			return r.Date > date
		}
		return r.Odometer > odometer
	})
	if idx == 0 {
		return Preview{}, false
	}

	dist := odometer - sorted[idx-1].Odometer
	if dist <= 0 {
		return Preview{}, false
	}

	return Preview{
		Distance:   dist,
		Fuel:       fuel,
		Efficiency: dist / fuel,
	}, true
}
