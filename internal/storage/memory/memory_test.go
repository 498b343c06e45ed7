package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"consumo/internal/core"
)

func TestRoundTripAndIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()

	record := core.MonthlyRecord{
		Year:        2025,
		Month:       2,
		LastUpdated: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Consumptions: []core.DailyReading{
			{Day: 1, Kwh: 2.5},
		},
	}
	if err := s.SaveMonthlyConsumption(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, found, err := s.ReadMonthlyConsumption(ctx, 2025, 2)
	if err != nil || !found {
		t.Fatalf("read: found=%v err=%v", found, err)
	}

	// Mutating the returned slice must not leak into the store.
	got.Consumptions[0].Kwh = 99
	again, _, _ := s.ReadMonthlyConsumption(ctx, 2025, 2)
	if again.Consumptions[0].Kwh != 2.5 {
		t.Fatalf("store state mutated through returned record")
	}
}

func TestMissingRecord(t *testing.T) {
	s := New()
	_, found, err := s.ReadMonthlyConsumption(context.Background(), 1999, 1)
	if err != nil || found {
		t.Fatalf("expected found=false, nil error; got found=%v err=%v", found, err)
	}
}

func TestLockAccount(t *testing.T) {
	s := New()
	ctx := context.Background()
	account := core.Account{Email: "a@example.com", PropertyID: "1"}

	if err := s.LockAccount(ctx, account); err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if err := s.LockAccount(ctx, account); err != nil {
		t.Fatalf("re-lock same identity: %v", err)
	}
	err := s.LockAccount(ctx, core.Account{Email: "b@example.com", PropertyID: "2"})
	if !errors.Is(err, core.ErrLockMismatch) {
		t.Fatalf("expected ErrLockMismatch, got %v", err)
	}
}
