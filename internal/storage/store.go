// Package storage defines the monthly record store port and its
// backends. Each (year, month) key maps to exactly one persisted unit
// in a flat namespace; writes are whole-record replacements.
package storage

import (
	"context"

	"consumo/internal/core"
)

// Store is the outbound port for monthly record persistence.
type Store interface {
	// ReadMonthlyConsumption loads the record for the given period.
	// A missing record is reported as found=false, never as an error;
	// any other I/O fault surfaces as a *core.StorageError.
	ReadMonthlyConsumption(ctx context.Context, year, month int) (core.MonthlyRecord, bool, error)

	// SaveMonthlyConsumption overwrites the record for its period
	// unconditionally. The write is atomic: readers observe either the
	// old or the fully-new content, never a partial one. Closure policy
	// is the caller's concern, not the store's.
	SaveMonthlyConsumption(ctx context.Context, record core.MonthlyRecord) error

	// LockAccount binds the storage location to one identity pair.
	// Creating a lock and re-locking the same identity both succeed;
	// a different identity against an existing lock fails with
	// core.ErrLockMismatch and leaves the original artifact untouched.
	LockAccount(ctx context.Context, account core.Account) error
}
