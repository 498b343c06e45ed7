package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

type (
	// DailyReading is one day's consumption within a specific month.
	DailyReading struct {
		Day int     `json:"day"`
		Kwh float64 `json:"kwh"`
	}

	// MonthlyRecord is the canonical persisted unit of consumption data
	// for one calendar month. Records are only ever replaced whole.
	MonthlyRecord struct {
		Year         int            `json:"year"`
		Month        int            `json:"month"` // 1-12
		Closed       bool           `json:"closed"`
		LastUpdated  time.Time      `json:"lastUpdated"`
		Consumptions []DailyReading `json:"consumptions"`
	}

	// Measurement is a raw reading as delivered by the metering source,
	// before normalization into a DailyReading.
	Measurement struct {
		StartAt time.Time
		Kwh     float64
	}

	// Account identifies the upstream metering account a storage
	// location is bound to.
	Account struct {
		Email      string
		PropertyID string
	}
)

// HasReadings reports whether the record carries any consumption data.
func (r MonthlyRecord) HasReadings() bool {
	return len(r.Consumptions) > 0
}

// Validate checks the structural invariants of a record: month range,
// day range, and at most one reading per day.
func (r MonthlyRecord) Validate() error {
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("invalid month %d", r.Month)
	}
	seen := make(map[int]struct{}, len(r.Consumptions))
	for _, c := range r.Consumptions {
		if c.Day < 1 || c.Day > 31 {
			return fmt.Errorf("invalid day %d", c.Day)
		}
		if c.Kwh < 0 {
			return fmt.Errorf("negative consumption %g on day %d", c.Kwh, c.Day)
		}
		if _, dup := seen[c.Day]; dup {
			return fmt.Errorf("duplicate reading for day %d", c.Day)
		}
		seen[c.Day] = struct{}{}
	}
	return nil
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year, month int) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Checksum derives the one-way identity hash used to name the account
// lock artifact. Stable across restarts.
func (a Account) Checksum() string {
	sum := sha256.Sum256([]byte(a.Email + ":" + a.PropertyID))
	return hex.EncodeToString(sum[:])
}

// Clock abstracts wall-clock access so extraction and reporting stay
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
