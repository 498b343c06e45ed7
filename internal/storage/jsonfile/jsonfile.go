// Package jsonfile persists monthly records as one JSON file per
// (year, month) key in a single flat directory.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"consumo/internal/core"
	"consumo/internal/storage"
)

const (
	lockPrefix = "account-"
	filePerm   = 0644
	dirPerm    = 0755
)

type Store struct {
	baseDir string
}

var _ storage.Store = (*Store)(nil)

// New creates the base directory if needed and returns a file store.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, dirPerm); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// consumptionFileName is the stable key-to-name derivation. Zero-padded
// so directory listings sort chronologically.
func consumptionFileName(year, month int) string {
	return fmt.Sprintf("consumption-%d-%02d.json", year, month)
}

func lockFileName(account core.Account) string {
	return lockPrefix + account.Checksum() + ".json"
}

func (s *Store) ReadMonthlyConsumption(ctx context.Context, year, month int) (core.MonthlyRecord, bool, error) {
	name := consumptionFileName(year, month)
	data, err := os.ReadFile(filepath.Join(s.baseDir, name))
	if os.IsNotExist(err) {
		return core.MonthlyRecord{}, false, nil
	}
	if err != nil {
		return core.MonthlyRecord{}, false, &core.StorageError{Op: "read", Key: name, Err: err}
	}

	var record core.MonthlyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return core.MonthlyRecord{}, false, &core.StorageError{Op: "read", Key: name, Err: err}
	}
	return record, true, nil
}

func (s *Store) SaveMonthlyConsumption(ctx context.Context, record core.MonthlyRecord) error {
	name := consumptionFileName(record.Year, record.Month)
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return &core.StorageError{Op: "save", Key: name, Err: err}
	}
	if err := s.writeAtomic(name, data); err != nil {
		return &core.StorageError{Op: "save", Key: name, Err: err}
	}

	slog.DebugContext(ctx, "Monthly record saved",
		"key", name,
		"readings", len(record.Consumptions),
		"closed", record.Closed)
	return nil
}

func (s *Store) LockAccount(ctx context.Context, account core.Account) error {
	wanted := lockFileName(account)

	existing, err := s.findLockFile()
	if err != nil {
		return &core.StorageError{Op: "lock", Key: wanted, Err: err}
	}

	switch {
	case existing == "":
		payload, _ := json.Marshal(map[string]bool{"lock": true})
		if err := s.writeAtomic(wanted, payload); err != nil {
			return &core.StorageError{Op: "lock", Key: wanted, Err: err}
		}
		slog.InfoContext(ctx, "Account lock created", "key", wanted)
		return nil
	case existing == wanted:
		// Same identity, nothing to do.
		return nil
	default:
		slog.ErrorContext(ctx, "Account lock belongs to a different identity",
			"existing", existing, "requested", wanted)
		return core.ErrLockMismatch
	}
}

// findLockFile scans the flat namespace for a previously written lock
// artifact. Returns "" when none exists.
func (s *Store) findLockFile() (string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, lockPrefix) && strings.HasSuffix(name, ".json") {
			return name, nil
		}
	}
	return "", nil
}

// writeAtomic stages the content in a temp file and renames it over the
// target, so readers never observe a partial write.
func (s *Store) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.baseDir, name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(s.baseDir, name)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
