package services

import (
	"context"
	"log/slog"
	"time"

	"consumo/internal/core"
	"consumo/internal/storage"
)

// ExtractService is the extraction orchestrator: it resolves the
// target period, pulls raw readings from the source, normalizes them
// into a monthly record and writes it through the store.
type ExtractService struct {
	source ReadingSource
	store  storage.Store
	clock  core.Clock
}

func NewExtractService(source ReadingSource, store storage.Store, clock core.Clock) *ExtractService {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &ExtractService{
		source: source,
		store:  store,
		clock:  clock,
	}
}

// Run extracts the given period and persists the resulting record,
// overwriting any prior record for that period unconditionally.
// Skipping already-closed months is the caller's policy, not ours.
//
// A zero year or month resolves to the current calendar period. A
// month outside 1..12 fails with *core.InvalidInputError; it is never
// clamped. Source and store failures wrap into *core.ExtractionError
// and nothing partial is persisted.
func (s *ExtractService) Run(ctx context.Context, year, month int) (core.MonthlyRecord, error) {
	now := s.clock.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 || year < 0 {
		return core.MonthlyRecord{}, &core.InvalidInputError{Year: year, Month: month}
	}

	// A closed window entirely within one month: day 0 of the next
	// month normalizes to the last day of this one, and the source
	// treats the end bound as inclusive.
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)

	slog.InfoContext(ctx, "Extraction started",
		"year", year, "month", month,
		"window_start", start.Format("2006-01-02"),
		"window_end", end.Format("2006-01-02"))

	measurements, err := s.source.GetDailyConsumption(ctx, start, end)
	if err != nil {
		return core.MonthlyRecord{}, &core.ExtractionError{Year: year, Month: month, Err: err}
	}

	readings := make([]core.DailyReading, 0, len(measurements))
	for _, m := range measurements {
		readings = append(readings, core.DailyReading{
			Day: m.StartAt.Day(),
			Kwh: m.Kwh,
		})
	}

	record := core.MonthlyRecord{
		Year:         year,
		Month:        month,
		Closed:       len(readings) >= end.Day(),
		LastUpdated:  now,
		Consumptions: readings,
	}
	if err := record.Validate(); err != nil {
		return core.MonthlyRecord{}, &core.ExtractionError{Year: year, Month: month, Err: err}
	}

	if err := s.store.SaveMonthlyConsumption(ctx, record); err != nil {
		return core.MonthlyRecord{}, &core.ExtractionError{Year: year, Month: month, Err: err}
	}

	slog.InfoContext(ctx, "Extraction completed",
		"year", year, "month", month,
		"readings", len(readings),
		"closed", record.Closed)
	return record, nil
}
