// Package sqlite is the embedded-database Store backend. One row per
// (year, month) key; the reading list travels as a JSON column so the
// row replacement stays a single atomic statement.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"consumo/internal/core"
	"consumo/internal/storage"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func recordKey(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

func (s *Store) ReadMonthlyConsumption(ctx context.Context, year, month int) (core.MonthlyRecord, bool, error) {
	key := recordKey(year, month)
	row := s.db.QueryRowContext(ctx,
		`SELECT closed, last_updated, consumptions FROM monthly_consumption WHERE year = ? AND month = ?`,
		year, month)

	var (
		closed       int
		lastUpdated  string
		consumptions string
	)
	err := row.Scan(&closed, &lastUpdated, &consumptions)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyRecord{}, false, nil
	}
	if err != nil {
		return core.MonthlyRecord{}, false, &core.StorageError{Op: "read", Key: key, Err: err}
	}

	record := core.MonthlyRecord{Year: year, Month: month, Closed: closed != 0}
	record.LastUpdated, err = time.Parse(time.RFC3339Nano, lastUpdated)
	if err != nil {
		return core.MonthlyRecord{}, false, &core.StorageError{Op: "read", Key: key, Err: err}
	}
	if err := json.Unmarshal([]byte(consumptions), &record.Consumptions); err != nil {
		return core.MonthlyRecord{}, false, &core.StorageError{Op: "read", Key: key, Err: err}
	}
	return record, true, nil
}

func (s *Store) SaveMonthlyConsumption(ctx context.Context, record core.MonthlyRecord) error {
	key := recordKey(record.Year, record.Month)

	readings := record.Consumptions
	if readings == nil {
		readings = []core.DailyReading{}
	}
	consumptions, err := json.Marshal(readings)
	if err != nil {
		return &core.StorageError{Op: "save", Key: key, Err: err}
	}

	closed := 0
	if record.Closed {
		closed = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO monthly_consumption (year, month, closed, last_updated, consumptions)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(year, month) DO UPDATE SET
		   closed = excluded.closed,
		   last_updated = excluded.last_updated,
		   consumptions = excluded.consumptions`,
		record.Year, record.Month, closed,
		record.LastUpdated.UTC().Format(time.RFC3339Nano), string(consumptions))
	if err != nil {
		return &core.StorageError{Op: "save", Key: key, Err: err}
	}

	slog.DebugContext(ctx, "Monthly record saved",
		"key", key,
		"readings", len(record.Consumptions),
		"closed", record.Closed)
	return nil
}

func (s *Store) LockAccount(ctx context.Context, account core.Account) error {
	checksum := account.Checksum()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.StorageError{Op: "lock", Key: checksum, Err: err}
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT checksum FROM account_lock WHERE id = 1`).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO account_lock (id, checksum) VALUES (1, ?)`, checksum); err != nil {
			return &core.StorageError{Op: "lock", Key: checksum, Err: err}
		}
		if err := tx.Commit(); err != nil {
			return &core.StorageError{Op: "lock", Key: checksum, Err: err}
		}
		slog.InfoContext(ctx, "Account lock created", "key", checksum)
		return nil
	case err != nil:
		return &core.StorageError{Op: "lock", Key: checksum, Err: err}
	case existing == checksum:
		return nil
	default:
		slog.ErrorContext(ctx, "Account lock belongs to a different identity",
			"existing", existing, "requested", checksum)
		return core.ErrLockMismatch
	}
}
