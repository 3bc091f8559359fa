package manager

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"library/internal/models"
	"library/internal/storage"
)

// Patch is a partial record applied on create and update
type Patch[T any] interface {
	Apply(rec T) T
}

// Entity describes how a Manager builds and checks records of one type
type Entity[T any] struct {
	// Name is the collection name, e.g. "books"
	Name string
	// Label is the human readable singular, e.g. "Book"
	Label string
	// New returns a record holding the defaults a create payload is applied to
	New func() T
	// Validate returns a field -> message map, empty when rec is valid
	Validate func(rec T) map[string]string
}

// Manager provides CRUD operations over a Store for one entity type
type Manager[T models.Record[T], P Patch[T]] struct {
	entity Entity[T]
	store  storage.Store[T]
	logger *zap.Logger
}

// New creates a manager for entity backed by store
func New[T models.Record[T], P Patch[T]](entity Entity[T], store storage.Store[T], logger *zap.Logger) *Manager[T, P] {
	return &Manager[T, P]{
		entity: entity,
		store:  store,
		logger: logger.With(zap.String("entity", entity.Name)),
	}
}

// Name returns the collection name
func (m *Manager[T, P]) Name() string {
	return m.entity.Name
}

// Label returns the human readable singular name
func (m *Manager[T, P]) Label() string {
	return m.entity.Label
}

// List returns all records
func (m *Manager[T, P]) List(ctx context.Context) ([]T, error) {
	records, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Error("Failed to list records", zap.Error(err))
		return nil, fmt.Errorf("failed to list %s: %w", m.entity.Name, err)
	}
	if records == nil {
		records = []T{}
	}

	m.logger.Debug("Listed records", zap.Int("count", len(records)))
	return records, nil
}

// Count returns the number of records
func (m *Manager[T, P]) Count(ctx context.Context) (int, error) {
	n, err := m.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", m.entity.Name, err)
	}
	return n, nil
}

// Get returns the record with the given id
func (m *Manager[T, P]) Get(ctx context.Context, id int64) (T, error) {
	rec, err := m.store.Find(ctx, id)
	if err != nil {
		return rec, m.storeError("get", id, err)
	}
	return rec, nil
}

// Validate builds the record a create payload would produce without storing it
func (m *Manager[T, P]) Validate(patch P) (T, error) {
	rec := patch.Apply(m.entity.New())
	if err := m.validate(rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// Create validates the payload, assigns a new id and appends the record
func (m *Manager[T, P]) Create(ctx context.Context, patch P) (T, error) {
	rec, err := m.Validate(patch)
	if err != nil {
		var zero T
		return zero, err
	}

	id, err := m.store.NextID(ctx)
	if err != nil {
		var zero T
		m.logger.Error("Failed to allocate id", zap.Error(err))
		return zero, fmt.Errorf("failed to create %s: %w", m.entity.Label, err)
	}
	rec = rec.WithID(id)

	if err := m.store.Append(ctx, rec); err != nil {
		var zero T
		m.logger.Error("Failed to append record", zap.Int64("id", id), zap.Error(err))
		return zero, fmt.Errorf("failed to create %s: %w", m.entity.Label, err)
	}

	m.logger.Info("Record created", zap.Int64("id", id))
	return rec, nil
}

// Update merges the payload into an existing record.
// A payload that fails validation leaves the store untouched.
func (m *Manager[T, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	var zero T

	current, err := m.store.Find(ctx, id)
	if err != nil {
		return zero, m.storeError("update", id, err)
	}

	rec := patch.Apply(current).WithID(id)
	if err := m.validate(rec); err != nil {
		return zero, err
	}

	if err := m.store.Replace(ctx, rec); err != nil {
		return zero, m.storeError("update", id, err)
	}

	m.logger.Info("Record updated", zap.Int64("id", id))
	return rec, nil
}

// Delete removes the record with the given id
func (m *Manager[T, P]) Delete(ctx context.Context, id int64) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return m.storeError("delete", id, err)
	}

	m.logger.Info("Record deleted", zap.Int64("id", id))
	return nil
}

func (m *Manager[T, P]) validate(rec T) error {
	if m.entity.Validate == nil {
		return nil
	}
	fields := m.entity.Validate(rec)
	if len(fields) == 0 {
		return nil
	}

	m.logger.Warn("Validation failed", zap.Any("fields", fields))
	return &ValidationError{Entity: m.entity.Label, Fields: fields}
}

// storeError maps storage.ErrNotFound to a NotFoundError and wraps everything else
func (m *Manager[T, P]) storeError(op string, id int64, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		m.logger.Debug("Record not found", zap.String("op", op), zap.Int64("id", id))
		return &NotFoundError{Entity: m.entity.Label, ID: id}
	}

	m.logger.Error("Store operation failed",
		zap.String("op", op),
		zap.Int64("id", id),
		zap.Error(err),
	)
	return fmt.Errorf("failed to %s %s %d: %w", op, m.entity.Label, id, err)
}
