// Package memory is an in-process Store used by tests and as the
// default development backend.
package memory

import (
	"context"
	"sync"

	"consumo/internal/core"
	"consumo/internal/storage"
)

type key struct {
	year, month int
}

type Store struct {
	mu      sync.Mutex
	records map[key]core.MonthlyRecord
	lock    string // checksum of the locked identity, "" when unlocked
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{records: make(map[key]core.MonthlyRecord)}
}

func (s *Store) ReadMonthlyConsumption(_ context.Context, year, month int) (core.MonthlyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, found := s.records[key{year, month}]
	if !found {
		return core.MonthlyRecord{}, false, nil
	}
	return cloneRecord(record), true, nil
}

func (s *Store) SaveMonthlyConsumption(_ context.Context, record core.MonthlyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key{record.Year, record.Month}] = cloneRecord(record)
	return nil
}

func (s *Store) LockAccount(_ context.Context, account core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	checksum := account.Checksum()
	switch s.lock {
	case "":
		s.lock = checksum
		return nil
	case checksum:
		return nil
	default:
		return core.ErrLockMismatch
	}
}

// cloneRecord keeps callers from mutating stored state through the
// shared consumptions slice.
func cloneRecord(r core.MonthlyRecord) core.MonthlyRecord {
	if r.Consumptions != nil {
		r.Consumptions = append([]core.DailyReading(nil), r.Consumptions...)
	}
	return r
}
