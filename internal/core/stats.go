package core

import "sort"

// Statistics summarizes a sequence of daily readings. Diff is only set
// when a comparison baseline period was available.
type Statistics struct {
	Total float64  `json:"total"`
	Max   float64  `json:"max"`
	Min   float64  `json:"min"`
	P50   float64  `json:"p50"`
	P90   float64  `json:"p90"`
	Diff  *float64 `json:"diff,omitempty"`
}

// CalculateStats derives Statistics from the given readings. Empty
// input yields all-zero fields and no diff.
//
// Percentiles are nearest-rank: the value at index floor(n*p) of the
// ascending-sorted kwh values, no interpolation. For n=1 both indices
// are 0; for n=10 the p50 index is 5 (the 6th smallest value). Other
// consumers of the stored data reproduce this exact formula, so it
// must not change.
func CalculateStats(readings []DailyReading) Statistics {
	if len(readings) == 0 {
		return Statistics{}
	}

	kwh := make([]float64, len(readings))
	for i, r := range readings {
		kwh[i] = r.Kwh
	}
	sort.Float64s(kwh)

	var total float64
	for _, v := range kwh {
		total += v
	}

	n := len(kwh)
	return Statistics{
		Total: total,
		Min:   kwh[0],
		Max:   kwh[n-1],
		P50:   kwh[int(float64(n)*0.5)],
		P90:   kwh[int(float64(n)*0.9)],
	}
}
