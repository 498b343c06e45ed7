package core

import (
	"testing"
	"time"
)

func TestMonthlyRecordValidate(t *testing.T) {
	good := MonthlyRecord{
		Year:  2025,
		Month: 6,
		Consumptions: []DailyReading{
			{Day: 1, Kwh: 3.2},
			{Day: 2, Kwh: 4.1},
		},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []MonthlyRecord{
		{Year: 2025, Month: 0},
		{Year: 2025, Month: 13},
		{Year: 2025, Month: 6, Consumptions: []DailyReading{{Day: 0, Kwh: 1}}},
		{Year: 2025, Month: 6, Consumptions: []DailyReading{{Day: 32, Kwh: 1}}},
		{Year: 2025, Month: 6, Consumptions: []DailyReading{{Day: 3, Kwh: -0.1}}},
		{Year: 2025, Month: 6, Consumptions: []DailyReading{{Day: 3, Kwh: 1}, {Day: 3, Kwh: 2}}},
	}
	for i, r := range bads {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year, month, want int
	}{
		{2025, 1, 31},
		{2025, 4, 30},
		{2025, 2, 28},
		{2024, 2, 29}, // leap year
		{2025, 12, 31},
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Fatalf("DaysInMonth(%d, %d) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestAccountChecksum(t *testing.T) {
	a := Account{Email: "user@example.com", PropertyID: "12345"}
	first := a.Checksum()
	if len(first) != 64 {
		t.Fatalf("checksum length = %d, want 64 hex chars", len(first))
	}
	if first != a.Checksum() {
		t.Fatalf("checksum must be deterministic")
	}
	other := Account{Email: "user@example.com", PropertyID: "99999"}
	if other.Checksum() == first {
		t.Fatalf("different identities must not collide")
	}
}

func TestSystemClockUTC(t *testing.T) {
	now := SystemClock{}.Now()
	if now.Location() != time.UTC {
		t.Fatalf("system clock must report UTC, got %v", now.Location())
	}
}
