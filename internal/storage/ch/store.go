package ch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"library/internal/models"
	"library/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store keeps one entity type in the shared records table.
// Every write inserts a new row version; deletes insert a tombstone.
type Store[T models.Record[T]] struct {
	db     *ClickHouseDB
	entity string

	mu          sync.Mutex
	lastID      int64
	lastVersion uint64
}

// NewStore returns a store for entity backed by db
func NewStore[T models.Record[T]](db *ClickHouseDB, entity string) *Store[T] {
	return &Store[T]{db: db, entity: entity}
}

// Load returns all live records ordered by id
func (s *Store[T]) Load(ctx context.Context) ([]T, error) {
	rows, err := s.db.conn.Query(ctx, `SELECT id, data, deleted FROM records FINAL WHERE entity = ? ORDER BY id`, s.entity)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.entity, err)
	}
	defer rows.Close()

	var records []T
	for rows.Next() {
		var (
			id      int64
			data    string
			deleted bool
		)
		if err := rows.Scan(&id, &data, &deleted); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.entity, err)
		}
		if deleted {
			continue
		}
		rec, err := decode[T](id, data)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.entity, err)
	}
	return records, nil
}

// Count returns the number of live records
func (s *Store[T]) Count(ctx context.Context) (int, error) {
	var n uint64
	row := s.db.conn.QueryRow(ctx, `SELECT count() FROM records FINAL WHERE entity = ? AND deleted = 0`, s.entity)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.entity, err)
	}
	return int(n), nil
}

// Find returns the live record with the given id
func (s *Store[T]) Find(ctx context.Context, id int64) (T, error) {
	var zero T

	rows, err := s.db.conn.Query(ctx, `SELECT data, deleted FROM records FINAL WHERE entity = ? AND id = ?`, s.entity, id)
	if err != nil {
		return zero, fmt.Errorf("failed to find %s %d: %w", s.entity, id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, fmt.Errorf("failed to find %s %d: %w", s.entity, id, err)
		}
		return zero, storage.ErrNotFound
	}

	var (
		data    string
		deleted bool
	)
	if err := rows.Scan(&data, &deleted); err != nil {
		return zero, fmt.Errorf("failed to scan %s: %w", s.entity, err)
	}
	if deleted {
		return zero, storage.ErrNotFound
	}
	return decode[T](id, data)
}

// Append inserts a new record
func (s *Store[T]) Append(ctx context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Find(ctx, rec.GetID()); err == nil {
		return fmt.Errorf("record %d: %w", rec.GetID(), storage.ErrAlreadyExists)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return s.insert(ctx, rec, false)
}

// Replace inserts a newer version of an existing record
func (s *Store[T]) Replace(ctx context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Find(ctx, rec.GetID()); err != nil {
		return err
	}
	return s.insert(ctx, rec, false)
}

// Delete inserts a tombstone for the record
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	return s.insert(ctx, rec, true)
}

// NextID returns max(id)+1 over every version, tombstones included, so ids are never reused
func (s *Store[T]) NextID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID int64
	row := s.db.conn.QueryRow(ctx, `SELECT max(id) FROM records WHERE entity = ?`, s.entity)
	if err := row.Scan(&maxID); err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", s.entity, err)
	}

	s.lastID = max(s.lastID, maxID) + 1
	return s.lastID, nil
}

// Close is a no-op, the connection is owned by ClickHouseDB
func (s *Store[T]) Close() error {
	return nil
}

func (s *Store[T]) insert(ctx context.Context, rec T, deleted bool) error {
	data, err := json.MarshalToString(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s %d: %w", s.entity, rec.GetID(), err)
	}

	err = s.db.conn.Exec(ctx, `INSERT INTO records (entity, id, data, deleted, version) VALUES (?, ?, ?, ?, ?)`,
		s.entity, rec.GetID(), data, deleted, s.nextVersion())
	if err != nil {
		return fmt.Errorf("failed to write %s %d: %w", s.entity, rec.GetID(), err)
	}
	return nil
}

// nextVersion is strictly increasing within the process
func (s *Store[T]) nextVersion() uint64 {
	v := uint64(time.Now().UnixNano())
	if v <= s.lastVersion {
		v = s.lastVersion + 1
	}
	s.lastVersion = v
	return v
}

func decode[T models.Record[T]](id int64, data string) (T, error) {
	var rec T
	if err := json.UnmarshalFromString(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to decode record %d: %w", id, err)
	}
	return rec.WithID(id), nil
}
