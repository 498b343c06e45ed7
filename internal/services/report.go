package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"consumo/internal/core"
	"consumo/internal/storage"
)

// Rolling windows longer than a year are rejected outright.
const maxPeriodDays = 365

type (
	// MonthlyReport is a stored record with statistics attached when
	// the record has readings.
	MonthlyReport struct {
		core.MonthlyRecord
		Stats *core.Statistics `json:"stats,omitempty"`
	}

	// DatedReading is a daily reading tagged with its absolute
	// calendar date, for windows that span month boundaries.
	DatedReading struct {
		Date string  `json:"date"` // 2006-01-02
		Day  int     `json:"day"`
		Kwh  float64 `json:"kwh"`
	}

	// PeriodReport is the rolling-window view over the last N days.
	PeriodReport struct {
		Consumptions []DatedReading  `json:"consumptions"`
		Stats        core.Statistics `json:"stats"`
	}
)

// ReportService assembles read-only views over stored monthly records.
type ReportService struct {
	store storage.Store
	clock core.Clock
}

func NewReportService(store storage.Store, clock core.Clock) *ReportService {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &ReportService{store: store, clock: clock}
}

// MonthlyReport returns the record for the period plus statistics.
// A missing or empty record comes back bare, stats omitted; found
// reports whether the store held a record at all. When the preceding
// calendar month has readings, Stats.Diff carries the total delta
// against it.
func (s *ReportService) MonthlyReport(ctx context.Context, year, month int) (MonthlyReport, bool, error) {
	record, found, err := s.store.ReadMonthlyConsumption(ctx, year, month)
	if err != nil {
		return MonthlyReport{}, false, err
	}

	report := MonthlyReport{MonthlyRecord: record}
	if !found || !record.HasReadings() {
		return report, found, nil
	}

	stats := core.CalculateStats(record.Consumptions)

	prevYear, prevMonth := year, month-1
	if month == 1 {
		prevYear, prevMonth = year-1, 12
	}
	previous, prevFound, err := s.store.ReadMonthlyConsumption(ctx, prevYear, prevMonth)
	if err != nil {
		return MonthlyReport{}, false, err
	}
	if prevFound && previous.HasReadings() {
		previousStats := core.CalculateStats(previous.Consumptions)
		diff := stats.Total - previousStats.Total
		stats.Diff = &diff
	}

	report.Stats = &stats
	return report, true, nil
}

// YearlyReport reads all twelve months of the year and returns, in
// month order, only those records that carry readings. The reads share
// no state and each targets its own key, so they run concurrently.
func (s *ReportService) YearlyReport(ctx context.Context, year int) ([]core.MonthlyRecord, error) {
	var (
		records [12]core.MonthlyRecord
		present [12]bool
	)

	g, gctx := errgroup.WithContext(ctx)
	for month := 1; month <= 12; month++ {
		g.Go(func() error {
			record, found, err := s.store.ReadMonthlyConsumption(gctx, year, month)
			if err != nil {
				return err
			}
			records[month-1] = record
			present[month-1] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]core.MonthlyRecord, 0, 12)
	for i := range records {
		if present[i] && records[i].HasReadings() {
			out = append(out, records[i])
		}
	}
	return out, nil
}

// PeriodForLastDays assembles the rolling window ending now. Records
// are stored per-month while a window may cross month boundaries, so
// every spanned month is fetched, its readings tagged with absolute
// dates, and the concatenation filtered down to [start, end].
func (s *ReportService) PeriodForLastDays(ctx context.Context, days int) (PeriodReport, error) {
	if days > maxPeriodDays {
		return PeriodReport{}, core.ErrPeriodTooLong
	}
	if days < 1 {
		return PeriodReport{}, &core.InvalidDayCountError{Days: days}
	}

	end := s.clock.Now().UTC()
	start := end.AddDate(0, 0, -(days - 1))
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	var (
		consumptions = []DatedReading{}
		readings     []core.DailyReading
	)

	for cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
		record, found, err := s.store.ReadMonthlyConsumption(ctx, cursor.Year(), int(cursor.Month()))
		if err != nil {
			return PeriodReport{}, err
		}
		if !found || !record.HasReadings() {
			continue
		}
		for _, c := range record.Consumptions {
			date := time.Date(cursor.Year(), cursor.Month(), c.Day, 0, 0, 0, 0, time.UTC)
			if date.Before(start) || date.After(end) {
				continue
			}
			consumptions = append(consumptions, DatedReading{
				Date: date.Format("2006-01-02"),
				Day:  c.Day,
				Kwh:  c.Kwh,
			})
			readings = append(readings, c)
		}
	}

	return PeriodReport{
		Consumptions: consumptions,
		Stats:        core.CalculateStats(readings),
	}, nil
}
