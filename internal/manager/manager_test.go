package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"library/internal/models"
	"library/internal/storage/stubs"
)

func ptr[T any](v T) *T { return &v }

func newBooks(t *testing.T) (*BookManager, *stubs.MockStore[models.Book]) {
	t.Helper()
	store := stubs.NewMockStore[models.Book]()
	return NewBookManager(store, zap.NewNop()), store
}

func TestManager_CreateThenListOnce(t *testing.T) {
	m, _ := newBooks(t)
	ctx := context.Background()

	book, err := m.Create(ctx, models.BookPatch{Title: ptr("X"), Author: ptr("Y")})
	require.NoError(t, err)
	assert.NotZero(t, book.ID)
	assert.Equal(t, 1, book.Stock, "stock defaults to 1")

	books, err := m.List(ctx)
	require.NoError(t, err)

	count := 0
	for _, b := range books {
		if b.ID == book.ID {
			count++
			assert.Equal(t, book, b)
		}
	}
	assert.Equal(t, 1, count)
}

func TestManager_ListEmptyIsNotNil(t *testing.T) {
	m, _ := newBooks(t)

	books, err := m.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestManager_CreateTrimsFields(t *testing.T) {
	m, _ := newBooks(t)

	book, err := m.Create(context.Background(), models.BookPatch{Title: ptr("  Dune "), Author: ptr(" Herbert")})
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "Herbert", book.Author)
}

func TestManager_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		patch  models.BookPatch
		fields []string
	}{
		{"missing everything", models.BookPatch{}, []string{"title", "author"}},
		{"blank title", models.BookPatch{Title: ptr("   "), Author: ptr("A")}, []string{"title"}},
		{"negative stock", models.BookPatch{Title: ptr("T"), Author: ptr("A"), Stock: ptr(-1)}, []string{"stock"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store := newBooks(t)
			ctx := context.Background()

			_, err := m.Create(ctx, tt.patch)
			require.ErrorIs(t, err, ErrValidation)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			for _, field := range tt.fields {
				assert.Contains(t, validationErr.Fields, field)
			}
			assert.Len(t, validationErr.Fields, len(tt.fields))

			// Nothing stored
			books, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, books)
		})
	}
}

func TestManager_UpdateMergesFields(t *testing.T) {
	m, _ := newBooks(t)
	ctx := context.Background()

	book, err := m.Create(ctx, models.BookPatch{Title: ptr("T"), Author: ptr("A"), Genre: ptr("Sci-Fi")})
	require.NoError(t, err)

	updated, err := m.Update(ctx, book.ID, models.BookPatch{Stock: ptr(7)})
	require.NoError(t, err)
	assert.Equal(t, book.ID, updated.ID)
	assert.Equal(t, "T", updated.Title)
	assert.Equal(t, "Sci-Fi", updated.Genre)
	assert.Equal(t, 7, updated.Stock)

	got, err := m.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestManager_UpdateMissingLeavesStoreUnchanged(t *testing.T) {
	m, store := newBooks(t)
	ctx := context.Background()

	_, err := m.Create(ctx, models.BookPatch{Title: ptr("T"), Author: ptr("A")})
	require.NoError(t, err)
	before, err := store.Load(ctx)
	require.NoError(t, err)

	_, err = m.Update(ctx, 999, models.BookPatch{Title: ptr("New")})
	require.ErrorIs(t, err, ErrNotFound)

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, int64(999), notFound.ID)
	assert.Equal(t, "Book with ID 999 not found", err.Error())

	after, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestManager_UpdateInvalidLeavesStoreUnchanged(t *testing.T) {
	m, _ := newBooks(t)
	ctx := context.Background()

	book, err := m.Create(ctx, models.BookPatch{Title: ptr("T"), Author: ptr("A")})
	require.NoError(t, err)

	_, err = m.Update(ctx, book.ID, models.BookPatch{Title: ptr("")})
	require.ErrorIs(t, err, ErrValidation)

	got, err := m.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
}

func TestManager_DeleteRemovesFromList(t *testing.T) {
	m, _ := newBooks(t)
	ctx := context.Background()

	keep, err := m.Create(ctx, models.BookPatch{Title: ptr("Keep"), Author: ptr("A")})
	require.NoError(t, err)
	gone, err := m.Create(ctx, models.BookPatch{Title: ptr("Gone"), Author: ptr("A")})
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, gone.ID))

	books, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, keep.ID, books[0].ID)

	// Deleting twice is a not-found
	err = m.Delete(ctx, gone.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Get(ctx, gone.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_IDsUniqueAcrossDeletes(t *testing.T) {
	m, _ := newBooks(t)
	ctx := context.Background()

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		book, err := m.Create(ctx, models.BookPatch{Title: ptr("T"), Author: ptr("A")})
		require.NoError(t, err)
		assert.False(t, seen[book.ID], "id %d assigned twice", book.ID)
		seen[book.ID] = true

		if i%2 == 0 {
			require.NoError(t, m.Delete(ctx, book.ID))
		}
	}
	assert.Len(t, seen, 5)
}

func TestManager_StoreFailureIsNotClassified(t *testing.T) {
	m, store := newBooks(t)
	ctx := context.Background()

	store.FailWrites = errors.New("disk full")

	_, err := m.Create(ctx, models.BookPatch{Title: ptr("T"), Author: ptr("A")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, store.FailWrites)
}

func TestManager_ValidateDoesNotStore(t *testing.T) {
	m, store := newBooks(t)

	book, err := m.Validate(models.BookPatch{Title: ptr("T"), Author: ptr("A")})
	require.NoError(t, err)
	assert.Zero(t, book.ID)

	books, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestReaderManager(t *testing.T) {
	m := NewReaderManager(stubs.NewMockStore[models.Reader](), zap.NewNop())
	ctx := context.Background()

	_, err := m.Create(ctx, models.ReaderPatch{Contact: ptr("ann@example.com")})
	assert.ErrorIs(t, err, ErrValidation)

	reader, err := m.Create(ctx, models.ReaderPatch{Name: ptr("Ann")})
	require.NoError(t, err)
	assert.Equal(t, []int64{}, reader.BorrowedBooks)

	reader, err = m.Update(ctx, reader.ID, models.ReaderPatch{Contact: ptr("ann@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "Ann", reader.Name)
	assert.Equal(t, "ann@example.com", reader.Contact)
}

func TestStaffManager(t *testing.T) {
	m := NewStaffManager(stubs.NewMockStore[models.Staff](), zap.NewNop())
	ctx := context.Background()

	_, err := m.Create(ctx, models.StaffPatch{Name: ptr("Bob")})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, map[string]string{"role": "Role cannot be empty"}, validationErr.Fields)
	assert.Equal(t, "invalid Staff member: role: Role cannot be empty", err.Error())

	member, err := m.Create(ctx, models.StaffPatch{Name: ptr("Bob"), Role: ptr("Librarian")})
	require.NoError(t, err)

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, m.Delete(ctx, member.ID))
	n, err = m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
