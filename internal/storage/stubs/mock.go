package stubs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"library/internal/models"
	"library/internal/storage"
)

// MockStore is an in-memory implementation of the Store interface for testing
type MockStore[T models.Record[T]] struct {
	mu      sync.RWMutex
	records map[int64]T
	nextID  int64

	// FailWrites makes every mutation return this error when set
	FailWrites error
}

// NewMockStore creates a new empty mock store
func NewMockStore[T models.Record[T]]() *MockStore[T] {
	return &MockStore[T]{
		records: make(map[int64]T),
		nextID:  1,
	}
}

// Load returns all records sorted by id
func (m *MockStore[T]) Load(ctx context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]T, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, rec.Clone())
	}

	// Sort by id
	sort.Slice(records, func(i, j int) bool {
		return records[i].GetID() < records[j].GetID()
	})

	return records, nil
}

// Find returns the record with the given id
func (m *MockStore[T]) Find(ctx context.Context, id int64) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return rec, storage.ErrNotFound
	}
	return rec.Clone(), nil
}

// Count returns the number of records
func (m *MockStore[T]) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.records), nil
}

// Append adds a new record
func (m *MockStore[T]) Append(ctx context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}
	if _, ok := m.records[rec.GetID()]; ok {
		return fmt.Errorf("record %d: %w", rec.GetID(), storage.ErrAlreadyExists)
	}

	m.records[rec.GetID()] = rec.Clone()
	if rec.GetID() >= m.nextID {
		m.nextID = rec.GetID() + 1
	}
	return nil
}

// Replace overwrites an existing record
func (m *MockStore[T]) Replace(ctx context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}
	if _, ok := m.records[rec.GetID()]; !ok {
		return storage.ErrNotFound
	}

	m.records[rec.GetID()] = rec.Clone()
	return nil
}

// Delete removes a record
func (m *MockStore[T]) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}
	if _, ok := m.records[id]; !ok {
		return storage.ErrNotFound
	}

	delete(m.records, id)
	return nil
}

// NextID allocates a new identifier
func (m *MockStore[T]) NextID(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	return id, nil
}

// Close does nothing for mock store
func (m *MockStore[T]) Close() error {
	return nil
}
