package manager

import (
	"go.uber.org/zap"

	"library/internal/models"
	"library/internal/storage"
)

type (
	BookManager   = Manager[models.Book, models.BookPatch]
	ReaderManager = Manager[models.Reader, models.ReaderPatch]
	StaffManager  = Manager[models.Staff, models.StaffPatch]
)

// BookEntity requires a title and an author; stock defaults to 1 and cannot be negative
var BookEntity = Entity[models.Book]{
	Name:  storage.EntityBooks,
	Label: "Book",
	New: func() models.Book {
		return models.Book{Stock: 1}
	},
	Validate: func(b models.Book) map[string]string {
		fields := make(map[string]string)
		if b.Title == "" {
			fields["title"] = "Title cannot be empty"
		}
		if b.Author == "" {
			fields["author"] = "Author cannot be empty"
		}
		if b.Stock < 0 {
			fields["stock"] = "Stock cannot be negative"
		}
		return fields
	},
}

// ReaderEntity requires a name
var ReaderEntity = Entity[models.Reader]{
	Name:  storage.EntityReaders,
	Label: "Reader",
	New: func() models.Reader {
		return models.Reader{BorrowedBooks: []int64{}}
	},
	Validate: func(r models.Reader) map[string]string {
		fields := make(map[string]string)
		if r.Name == "" {
			fields["name"] = "Name cannot be empty"
		}
		return fields
	},
}

// StaffEntity requires a name and a role
var StaffEntity = Entity[models.Staff]{
	Name:  storage.EntityStaff,
	Label: "Staff member",
	New: func() models.Staff {
		return models.Staff{}
	},
	Validate: func(s models.Staff) map[string]string {
		fields := make(map[string]string)
		if s.Name == "" {
			fields["name"] = "Name cannot be empty"
		}
		if s.Role == "" {
			fields["role"] = "Role cannot be empty"
		}
		return fields
	},
}

// NewBookManager creates the manager for the book collection
func NewBookManager(store storage.Store[models.Book], logger *zap.Logger) *BookManager {
	return New[models.Book, models.BookPatch](BookEntity, store, logger)
}

// NewReaderManager creates the manager for the reader collection
func NewReaderManager(store storage.Store[models.Reader], logger *zap.Logger) *ReaderManager {
	return New[models.Reader, models.ReaderPatch](ReaderEntity, store, logger)
}

// NewStaffManager creates the manager for the staff collection
func NewStaffManager(store storage.Store[models.Staff], logger *zap.Logger) *StaffManager {
	return New[models.Staff, models.StaffPatch](StaffEntity, store, logger)
}
