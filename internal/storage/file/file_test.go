package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"library/internal/models"
	"library/internal/storage"
)

// openBooks opens a book store in a fresh temp directory
func openBooks(t *testing.T, format string) (*Store[models.Book], string) {
	t.Helper()

	codec, err := CodecFor(format)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "books"+codec.Ext())
	s, err := Open[models.Book](path, codec, zap.NewNop())
	require.NoError(t, err)
	return s, path
}

func reopen(t *testing.T, path, format string) *Store[models.Book] {
	t.Helper()

	codec, err := CodecFor(format)
	require.NoError(t, err)

	s, err := Open[models.Book](path, codec, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestStore_EmptyWhenFileMissing(t *testing.T) {
	s, path := openBooks(t, "json")
	ctx := context.Background()

	books, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	// Nothing is written until the first mutation
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_AppendPersists(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			s, path := openBooks(t, format)
			ctx := context.Background()

			id, err := s.NextID(ctx)
			require.NoError(t, err)
			require.NoError(t, s.Append(ctx, models.Book{ID: id, Title: "Dune", Author: "Frank Herbert", Stock: 2}))

			// Reopen from disk
			s2 := reopen(t, path, format)
			books, err := s2.Load(ctx)
			require.NoError(t, err)
			require.Len(t, books, 1)
			assert.Equal(t, models.Book{ID: id, Title: "Dune", Author: "Frank Herbert", Stock: 2}, books[0])
		})
	}
}

func TestStore_FindReplaceDelete(t *testing.T) {
	s, path := openBooks(t, "json")
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		id, err := s.NextID(ctx)
		require.NoError(t, err)
		require.NoError(t, s.Append(ctx, models.Book{ID: id, Title: title, Author: "X"}))
	}

	book, err := s.Find(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "B", book.Title)

	book.Title = "B2"
	require.NoError(t, s.Replace(ctx, book))

	require.NoError(t, s.Delete(ctx, 1))

	s2 := reopen(t, path, "json")
	books, err := s2.Load(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "B2", books[0].Title)
	assert.Equal(t, "C", books[1].Title)
}

func TestStore_MissingRecord(t *testing.T) {
	s, _ := openBooks(t, "json")
	ctx := context.Background()

	_, err := s.Find(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.Replace(ctx, models.Book{ID: 42, Title: "X", Author: "Y"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.Delete(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_AppendDuplicateID(t *testing.T) {
	s, _ := openBooks(t, "json")
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, models.Book{ID: 1, Title: "A", Author: "X"}))
	err := s.Append(ctx, models.Book{ID: 1, Title: "B", Author: "Y"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestStore_IDsNeverReused(t *testing.T) {
	s, path := openBooks(t, "json")
	ctx := context.Background()

	seen := make(map[int64]bool)
	var last int64
	for i := 0; i < 3; i++ {
		id, err := s.NextID(ctx)
		require.NoError(t, err)
		require.NoError(t, s.Append(ctx, models.Book{ID: id, Title: "T", Author: "A"}))
		seen[id] = true
		last = id
	}

	// Deleting the newest record must not free its id, even across a reopen
	require.NoError(t, s.Delete(ctx, last))

	s2 := reopen(t, path, "json")
	id, err := s2.NextID(ctx)
	require.NoError(t, err)
	assert.False(t, seen[id], "id %d was handed out twice", id)
	assert.Greater(t, id, last)
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	s, _ := openBooks(t, "json")
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, models.Book{ID: 1, Title: "A", Author: "X"}))

	books, err := s.Load(ctx)
	require.NoError(t, err)
	books[0].Title = "mutated"

	book, err := s.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A", book.Title)
}

func TestStore_ReaderSliceNotShared(t *testing.T) {
	codec, err := CodecFor("json")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "readers.json")
	s, err := Open[models.Reader](path, codec, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	borrowed := []int64{10, 11}
	require.NoError(t, s.Append(ctx, models.Reader{ID: 1, Name: "Ann", BorrowedBooks: borrowed}))
	borrowed[0] = 0

	found, err := s.Find(ctx, 1)
	require.NoError(t, err)
	found.BorrowedBooks[1] = 0

	all, err := s.Load(ctx)
	require.NoError(t, err)
	all[0].BorrowedBooks[0] = 0

	found, err = s.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, found.BorrowedBooks)
}

func TestStore_Count(t *testing.T) {
	s, _ := openBooks(t, "yaml")
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Append(ctx, models.Book{ID: 1, Title: "A", Author: "X"}))
	require.NoError(t, s.Append(ctx, models.Book{ID: 2, Title: "B", Author: "Y"}))
	require.NoError(t, s.Delete(ctx, 1))

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s, path := openBooks(t, "json")
	ctx := context.Background()

	const workers = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  = make(map[int64]bool)
		errs = make(chan error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			id, err := s.NextID(ctx)
			if err != nil {
				errs <- err
				return
			}
			if err := s.Append(ctx, models.Book{ID: id, Title: "T", Author: "A", Stock: 1}); err != nil {
				errs <- err
				return
			}

			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, ids, workers)

	// Every append made it to disk
	books, err := reopen(t, path, "json").Load(ctx)
	require.NoError(t, err)
	assert.Len(t, books, workers)
}

func TestStore_FailedWriteLeavesStateUnchanged(t *testing.T) {
	s, path := openBooks(t, "json")
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, models.Book{ID: 1, Title: "A", Author: "X"}))

	// Point the store at a directory that no longer exists
	s.path = filepath.Join(filepath.Dir(path), "gone", "books.json")

	err := s.Append(ctx, models.Book{ID: 2, Title: "B", Author: "Y"})
	require.Error(t, err)
	err = s.Delete(ctx, 1)
	require.Error(t, err)

	books, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, int64(1), books[0].ID)
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	codec, err := CodecFor("json")
	require.NoError(t, err)

	_, err = Open[models.Book](path, codec, zap.NewNop())
	assert.Error(t, err)
}

func TestOpen_NextIDFromRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.json")
	// A document written without a counter still yields fresh ids
	data := `{"records":[{"book_id":7,"title":"A","author":"X","stock":1},{"book_id":3,"title":"B","author":"Y","stock":1}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s := reopen(t, path, "json")
	ctx := context.Background()

	books, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, int64(3), books[0].ID)

	id, err := s.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), id)
}

func TestCodecFor_Unsupported(t *testing.T) {
	_, err := CodecFor("xml")
	assert.Error(t, err)
}
