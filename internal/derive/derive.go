// Package derive turns the unordered set of persisted fuel records into the
// ordered, enriched log view and computes previews and monthly summaries
// over it. Everything here is pure: no I/O and no shared state.
package derive

import (
	"math"
	"sort"

	"github.com/nhle/cub-fuel-log/internal/model"
)

// less is the ordering relation: date ascending, then odometer ascending.
// Remaining ties fall back to ID so the result does not depend on input order.
func less(a, b model.FuelRecord) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.Odometer != b.Odometer {
		return a.Odometer < b.Odometer
	}
	return a.ID < b.ID
}

// Sort returns a copy of records sorted by the ordering relation.
func Sort(records []model.FuelRecord) []model.FuelRecord {
	sorted := make([]model.FuelRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// DeriveAll orders records and annotates each one with its distance, fuel,
// efficiency and first-record flag. The input slice is not modified.
//
// A record whose odometer does not strictly exceed its predecessor's is
// flagged IsFirst exactly like the chronologically first record: it is
// shown, but no interval is attributed to it.
func DeriveAll(records []model.FuelRecord) []model.EnrichedRecord {
	sorted := Sort(records)
	out := make([]model.EnrichedRecord, len(sorted))

	for i, rec := range sorted {
		e := model.EnrichedRecord{FuelRecord: rec}

		if i == 0 {
			e.IsFirst = true
		} else {
			d := rec.Odometer - sorted[i-1].Odometer
			if d > 0 {
				e.Distance = d
			} else {
				e.IsFirst = true
			}
		}

		e.TotalFuel = fuelAmount(rec.Fuel)
		e.Efficiency = efficiency(e.Distance, e.TotalFuel)
		out[i] = e
	}

	return out
}

// fuelAmount maps absent or nonsensical fuel values to 0.
func fuelAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func efficiency(distance, fuel float64) float64 {
	if distance > 0 && fuel > 0 {
		return distance / fuel
	}
	return 0
}

// Latest returns the last record of an ordered log.
func Latest(enriched []model.EnrichedRecord) (model.EnrichedRecord, bool) {
	if len(enriched) == 0 {
		return model.EnrichedRecord{}, false
	}
	return enriched[len(enriched)-1], true
}
