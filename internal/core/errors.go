package core

import (
	"errors"
	"fmt"
)

var (
	// ErrLockMismatch means the storage location is already bound to a
	// different upstream account.
	ErrLockMismatch = errors.New("account lock mismatch")

	// ErrPeriodTooLong rejects rolling windows over a year.
	ErrPeriodTooLong = errors.New("period exceeds 365 days")
)

// InvalidInputError carries the offending period values. Bad caller
// data, never retried and never clamped.
type InvalidInputError struct {
	Year  int
	Month int
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid extraction period: year=%d month=%d", e.Year, e.Month)
}

// InvalidDayCountError rejects a rolling-window day count below one.
type InvalidDayCountError struct {
	Days int
}

func (e *InvalidDayCountError) Error() string {
	return fmt.Sprintf("invalid day count: %d", e.Days)
}

// ExtractionError wraps a source or storage failure during an
// extraction run, keeping the requested period for the caller's logs.
type ExtractionError struct {
	Year  int
	Month int
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %d-%02d: %v", e.Year, e.Month, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// StorageError is an I/O fault from the record store. A missing record
// is not a StorageError; the store reports that as found=false.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ReadingSourceError wraps an upstream fetch or auth failure.
type ReadingSourceError struct {
	Op  string
	Err error
}

func (e *ReadingSourceError) Error() string {
	return fmt.Sprintf("reading source %s: %v", e.Op, e.Err)
}

func (e *ReadingSourceError) Unwrap() error { return e.Err }
