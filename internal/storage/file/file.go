package file

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"

	"library/internal/models"
	"library/internal/storage"
)

// document is the on-disk layout of one collection
type document[T any] struct {
	NextID  int64 `json:"next_id" yaml:"next_id"`
	Records []T   `json:"records" yaml:"records"`
}

// Store keeps one collection in memory and rewrites its file after every mutation
type Store[T models.Record[T]] struct {
	mu      sync.RWMutex
	path    string
	codec   Codec
	logger  *zap.Logger
	nextID  int64
	records []T
}

// Open loads the collection stored at path, creating the parent directory if needed.
// A missing or empty file yields an empty collection.
func Open[T models.Record[T]](path string, codec Codec, logger *zap.Logger) (*Store[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store[T]{
		path:   path,
		codec:  codec,
		logger: logger,
		nextID: 1,
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) > 0 {
		var doc document[T]
		if err := codec.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		s.records = doc.Records
		slices.SortFunc(s.records, compareID[T])
		s.nextID = max(s.nextID, doc.NextID)
		if n := len(s.records); n > 0 {
			s.nextID = max(s.nextID, s.records[n-1].GetID()+1)
		}
	}

	logger.Info("Store loaded",
		zap.String("path", path),
		zap.Int("records", len(s.records)),
		zap.Int64("next_id", s.nextID),
	)
	return s, nil
}

// Path returns the file backing the store
func (s *Store[T]) Path() string {
	return s.path
}

// Load returns a deep copy of every record
func (s *Store[T]) Load(ctx context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]T, len(s.records))
	for i, rec := range s.records {
		records[i] = rec.Clone()
	}
	return records, nil
}

// Count returns the number of records
func (s *Store[T]) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records), nil
}

// Find returns the record with the given id
func (s *Store[T]) Find(ctx context.Context, id int64) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index(id)
	if !ok {
		var zero T
		return zero, storage.ErrNotFound
	}
	return s.records[i].Clone(), nil
}

// Append inserts rec and persists the collection
func (s *Store[T]) Append(ctx context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index(rec.GetID())
	if ok {
		return fmt.Errorf("record %d: %w", rec.GetID(), storage.ErrAlreadyExists)
	}

	next := slices.Insert(slices.Clone(s.records), i, rec.Clone())
	nextID := max(s.nextID, rec.GetID()+1)
	if err := s.persist(next, nextID); err != nil {
		return err
	}

	s.records = next
	s.nextID = nextID
	return nil
}

// Replace overwrites the record sharing rec's id and persists the collection
func (s *Store[T]) Replace(ctx context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index(rec.GetID())
	if !ok {
		return storage.ErrNotFound
	}

	next := slices.Clone(s.records)
	next[i] = rec.Clone()
	if err := s.persist(next, s.nextID); err != nil {
		return err
	}

	s.records = next
	return nil
}

// Delete removes the record with the given id and persists the collection
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index(id)
	if !ok {
		return storage.ErrNotFound
	}

	next := slices.Delete(slices.Clone(s.records), i, i+1)
	if err := s.persist(next, s.nextID); err != nil {
		return err
	}

	s.records = next
	return nil
}

// NextID hands out the next identifier. The counter is written to disk with
// the following mutation, and survives deletes so ids are never reused.
func (s *Store[T]) NextID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	return id, nil
}

// Close does nothing, every mutation is already on disk
func (s *Store[T]) Close() error {
	return nil
}

// index locates id with a binary search. When absent it returns the insert position.
func (s *Store[T]) index(id int64) (int, bool) {
	return slices.BinarySearchFunc(s.records, id, func(rec T, id int64) int {
		return cmp.Compare(rec.GetID(), id)
	})
}

// persist writes the document to a temp file and renames it over the store file
func (s *Store[T]) persist(records []T, nextID int64) error {
	if records == nil {
		records = []T{}
	}
	data, err := s.codec.Marshal(document[T]{NextID: nextID, Records: records})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}

	s.logger.Debug("Store persisted",
		zap.String("path", s.path),
		zap.Int("records", len(records)),
	)
	return nil
}

func compareID[T models.Record[T]](a, b T) int {
	return cmp.Compare(a.GetID(), b.GetID())
}
