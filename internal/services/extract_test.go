package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"consumo/internal/core"
	"consumo/internal/storage/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// fakeSource records the requested window and replays canned readings.
type fakeSource struct {
	start, end   time.Time
	measurements []core.Measurement
	err          error
}

func (f *fakeSource) GetDailyConsumption(_ context.Context, start, end time.Time) ([]core.Measurement, error) {
	f.start, f.end = start, end
	if f.err != nil {
		return nil, f.err
	}
	return f.measurements, nil
}

func dailyMeasurements(year, month, count int) []core.Measurement {
	out := make([]core.Measurement, count)
	for i := range out {
		out[i] = core.Measurement{
			StartAt: time.Date(year, time.Month(month), i+1, 0, 0, 0, 0, time.UTC),
			Kwh:     float64(i + 1),
		}
	}
	return out
}

func TestRunFetchWindowIsInclusiveWithinMonth(t *testing.T) {
	source := &fakeSource{}
	store := memory.New()
	svc := NewExtractService(source, store, fixedClock{time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)})

	if _, err := svc.Run(context.Background(), 2024, 2); err != nil {
		t.Fatalf("run: %v", err)
	}

	wantStart := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC) // leap February, last day inclusive
	if !source.start.Equal(wantStart) || !source.end.Equal(wantEnd) {
		t.Fatalf("window = [%v, %v], want [%v, %v]", source.start, source.end, wantStart, wantEnd)
	}
}

func TestRunDefaultsToCurrentPeriod(t *testing.T) {
	source := &fakeSource{measurements: dailyMeasurements(2025, 8, 3)}
	store := memory.New()
	now := time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)
	svc := NewExtractService(source, store, fixedClock{now})

	record, err := svc.Run(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if record.Year != 2025 || record.Month != 8 {
		t.Fatalf("period = %d-%d, want 2025-8", record.Year, record.Month)
	}
	if !record.LastUpdated.Equal(now) {
		t.Fatalf("lastUpdated = %v, want clock time %v", record.LastUpdated, now)
	}
}

func TestRunInvalidMonth(t *testing.T) {
	svc := NewExtractService(&fakeSource{}, memory.New(), fixedClock{time.Now()})

	for _, month := range []int{-1, 13, 99} {
		_, err := svc.Run(context.Background(), 2025, month)
		var invalid *core.InvalidInputError
		if !errors.As(err, &invalid) {
			t.Fatalf("month %d: expected *core.InvalidInputError, got %v", month, err)
		}
		if invalid.Month != month {
			t.Fatalf("error must carry the offending month, got %+v", invalid)
		}
	}
}

func TestRunClosure(t *testing.T) {
	tests := []struct {
		name       string
		year       int
		month      int
		readings   int
		wantClosed bool
	}{
		{"partial 30-day month", 2025, 6, 10, false},
		{"complete 30-day month", 2025, 6, 30, true},
		{"complete leap February", 2024, 2, 29, true},
		{"no readings", 2025, 6, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{measurements: dailyMeasurements(tt.year, tt.month, tt.readings)}
			store := memory.New()
			svc := NewExtractService(source, store, fixedClock{time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)})

			record, err := svc.Run(context.Background(), tt.year, tt.month)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if record.Closed != tt.wantClosed {
				t.Fatalf("closed = %v, want %v", record.Closed, tt.wantClosed)
			}

			stored, found, err := store.ReadMonthlyConsumption(context.Background(), tt.year, tt.month)
			if err != nil || !found {
				t.Fatalf("record not persisted: found=%v err=%v", found, err)
			}
			if len(stored.Consumptions) != tt.readings {
				t.Fatalf("persisted %d readings, want %d", len(stored.Consumptions), tt.readings)
			}
		})
	}
}

func TestRunSourceFailureWrapsAndPersistsNothing(t *testing.T) {
	cause := &core.ReadingSourceError{Op: "get_measurements", Err: errors.New("boom")}
	source := &fakeSource{err: cause}
	store := memory.New()
	svc := NewExtractService(source, store, fixedClock{time.Now()})

	_, err := svc.Run(context.Background(), 2025, 5)

	var extractErr *core.ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected *core.ExtractionError, got %v", err)
	}
	if extractErr.Year != 2025 || extractErr.Month != 5 {
		t.Fatalf("wrapped error must carry the requested period, got %+v", extractErr)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("underlying cause lost: %v", err)
	}

	if _, found, _ := store.ReadMonthlyConsumption(context.Background(), 2025, 5); found {
		t.Fatalf("no record may be persisted on failure")
	}
}

type failingStore struct {
	*memory.Store
	saveErr error
}

func (f *failingStore) SaveMonthlyConsumption(ctx context.Context, record core.MonthlyRecord) error {
	return f.saveErr
}

func TestRunStoreFailureWraps(t *testing.T) {
	cause := &core.StorageError{Op: "save", Key: "2025-05", Err: errors.New("disk full")}
	store := &failingStore{Store: memory.New(), saveErr: cause}
	source := &fakeSource{measurements: dailyMeasurements(2025, 5, 2)}
	svc := NewExtractService(source, store, fixedClock{time.Now()})

	_, err := svc.Run(context.Background(), 2025, 5)

	var extractErr *core.ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected *core.ExtractionError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("underlying storage cause lost: %v", err)
	}
}

func TestRunOverwritesExistingRecordUnconditionally(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	// A closed record is already present; the orchestrator itself does
	// not honor it, closure-avoidance is the caller's job.
	if err := store.SaveMonthlyConsumption(ctx, core.MonthlyRecord{
		Year: 2025, Month: 5, Closed: true,
		Consumptions: []core.DailyReading{{Day: 1, Kwh: 100}},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	source := &fakeSource{measurements: dailyMeasurements(2025, 5, 2)}
	svc := NewExtractService(source, store, fixedClock{time.Now()})
	if _, err := svc.Run(ctx, 2025, 5); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, _, _ := store.ReadMonthlyConsumption(ctx, 2025, 5)
	if len(got.Consumptions) != 2 || got.Closed {
		t.Fatalf("record not overwritten: %+v", got)
	}
}
