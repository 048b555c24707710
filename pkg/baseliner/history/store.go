package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/jamesainslie/baseliner/pkg/baseliner/logging"
)

// ErrNotFound is returned when no run matches an ID.
var ErrNotFound = errors.New("run not found")

// ErrAmbiguous is returned when an ID prefix matches more than one run.
var ErrAmbiguous = errors.New("run id prefix is ambiguous")

// runPrefix prefixes every run key. Run IDs are time-ordered UUIDs, so key
// order is recording order.
var runPrefix = []byte("run/")

// Store wraps Badger for run history.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

// DefaultPath returns the default history directory.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "baseliner", "history")
}

// Open opens or creates a history store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

func runKey(id string) []byte {
	return append(append([]byte(nil), runPrefix...), id...)
}

// Record assigns an ID and timestamp to r when unset and stores it.
func (s *Store) Record(r *Run) error {
	if r.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate run id: %w", err)
		}
		r.ID = id.String()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}

	value, err := r.Encode()
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(r.ID), value)
	})
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	logging.Get("history").Debug("run recorded", "id", r.ID, "unexpected", r.Summary.Unexpected)
	return nil
}

// Get returns the run with the given ID. A unique ID prefix is accepted.
func (s *Store) Get(id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	var run *Run
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(id))
		if err == nil {
			run = &Run{}
			return item.Value(run.Decode)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		prefix := runKey(id)
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if run != nil {
				return fmt.Errorf("%w: %s", ErrAmbiguous, id)
			}
			run = &Run{}
			if err := it.Item().Value(run.Decode); err != nil {
				return err
			}
		}
		if run == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) List(limit int) ([]*Run, error) {
	var runs []*Run

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the last key <= seek key.
		seek := append(append([]byte(nil), runPrefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(runPrefix); it.Next() {
			run := &Run{}
			if err := it.Item().Value(run.Decode); err != nil {
				return err
			}
			runs = append(runs, run)
			if limit > 0 && len(runs) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// Cleanup removes runs recorded more than retention ago and returns how
// many were removed. retention <= 0 removes nothing.
func (s *Store) Cleanup(retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-retention)

	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(runPrefix); it.ValidForPrefix(runPrefix); it.Next() {
			var run Run
			if err := it.Item().Value(run.Decode); err != nil {
				return err
			}
			if run.Timestamp.Before(cutoff) {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}

	logging.Get("history").Info("history cleaned", "removed", len(stale), "cutoff", cutoff)
	return len(stale), nil
}
