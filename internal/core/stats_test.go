package core

import (
	"math"
	"testing"
)

func readingsFrom(kwh ...float64) []DailyReading {
	out := make([]DailyReading, len(kwh))
	for i, v := range kwh {
		out[i] = DailyReading{Day: i + 1, Kwh: v}
	}
	return out
}

func TestCalculateStatsEmpty(t *testing.T) {
	s := CalculateStats(nil)
	if s.Total != 0 || s.Max != 0 || s.Min != 0 || s.P50 != 0 || s.P90 != 0 {
		t.Fatalf("expected all-zero stats, got %+v", s)
	}
	if s.Diff != nil {
		t.Fatalf("expected no diff for empty input")
	}
}

func TestCalculateStatsSingle(t *testing.T) {
	s := CalculateStats(readingsFrom(4.2))
	if s.Total != 4.2 || s.Min != 4.2 || s.Max != 4.2 || s.P50 != 4.2 || s.P90 != 4.2 {
		t.Fatalf("single reading should dominate every field, got %+v", s)
	}
}

func TestCalculateStatsTenReadings(t *testing.T) {
	// Unsorted on purpose; values are 1..10 so sorted index i holds i+1.
	s := CalculateStats(readingsFrom(10, 3, 7, 1, 9, 2, 8, 4, 6, 5))

	if s.Total != 55 {
		t.Fatalf("total = %g, want 55", s.Total)
	}
	if s.Min != 1 || s.Max != 10 {
		t.Fatalf("min/max = %g/%g, want 1/10", s.Min, s.Max)
	}
	// Nearest-rank: p50 index floor(10*0.5)=5 -> 6th smallest.
	if s.P50 != 6 {
		t.Fatalf("p50 = %g, want 6", s.P50)
	}
	if s.P90 != 10 {
		t.Fatalf("p90 = %g, want 10", s.P90)
	}
}

func TestCalculateStatsOrdering(t *testing.T) {
	cases := [][]float64{
		{0.5},
		{3, 1, 2},
		{9.1, 0.2, 4.4, 4.4, 7},
		{1, 1, 1, 1, 1, 1, 1},
		{12.5, 0, 3.3, 8.8, 2.1, 6.6, 9.9, 4.2, 7.7, 5.5, 11, 1.1},
	}
	for i, kwh := range cases {
		s := CalculateStats(readingsFrom(kwh...))
		if !(s.Min <= s.P50 && s.P50 <= s.P90 && s.P90 <= s.Max) {
			t.Fatalf("case %d: percentile ordering violated: %+v", i, s)
		}
		var sum float64
		for _, v := range kwh {
			sum += v
		}
		if math.Abs(s.Total-sum) > 1e-9 {
			t.Fatalf("case %d: total = %g, want %g", i, s.Total, sum)
		}
	}
}
