package storage

import (
	"context"
	"errors"

	"library/internal/models"
)

// ErrNotFound is returned when a record with the requested id does not exist
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when appending a record whose id is taken
var ErrAlreadyExists = errors.New("record already exists")

// Store defines the persistence operations for one entity type.
// Records are kept ordered by id.
type Store[T models.Record[T]] interface {
	// Load returns every record of the collection.
	// Returned records share no memory with the store.
	Load(ctx context.Context) ([]T, error)
	// Count returns the number of records without loading them
	Count(ctx context.Context) (int, error)
	// Find returns the record with the given id or ErrNotFound
	Find(ctx context.Context, id int64) (T, error)
	// Append adds a new record and persists the collection
	Append(ctx context.Context, rec T) error
	// Replace overwrites the record sharing rec's id, or returns ErrNotFound
	Replace(ctx context.Context, rec T) error
	// Delete removes the record with the given id, or returns ErrNotFound
	Delete(ctx context.Context, id int64) error
	// NextID allocates an identifier that was never handed out before
	NextID(ctx context.Context) (int64, error)

	Close() error
}

// Entity names used for file names, table partitions and API paths
const (
	EntityBooks   = "books"
	EntityReaders = "readers"
	EntityStaff   = "staff"
)
