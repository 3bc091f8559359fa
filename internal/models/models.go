package models

import (
	"slices"
	"strings"
)

// Record is implemented by every entity kept in a store.
// WithID returns a copy of the record carrying the given identifier.
// Clone returns a copy that shares no memory with the receiver.
type Record[T any] interface {
	GetID() int64
	WithID(id int64) T
	Clone() T
}

// Book represents a book in the library catalogue
type Book struct {
	ID     int64  `json:"book_id" yaml:"book_id"`
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	Genre  string `json:"genre,omitempty" yaml:"genre,omitempty"`
	Stock  int    `json:"stock" yaml:"stock"`
}

// GetID returns the book identifier
func (b Book) GetID() int64 { return b.ID }

// WithID returns a copy of the book with the given identifier
func (b Book) WithID(id int64) Book {
	b.ID = id
	return b
}

// Clone returns the book itself, it holds no references
func (b Book) Clone() Book { return b }

// Reader represents a registered library reader
type Reader struct {
	ID            int64   `json:"reader_id" yaml:"reader_id"`
	Name          string  `json:"name" yaml:"name"`
	Contact       string  `json:"contact,omitempty" yaml:"contact,omitempty"`
	BorrowedBooks []int64 `json:"borrowed_books" yaml:"borrowed_books"`
}

// GetID returns the reader identifier
func (r Reader) GetID() int64 { return r.ID }

// WithID returns a copy of the reader with the given identifier
func (r Reader) WithID(id int64) Reader {
	r.ID = id
	return r
}

// Clone returns a copy of the reader with its own borrowed books slice
func (r Reader) Clone() Reader {
	r.BorrowedBooks = slices.Clone(r.BorrowedBooks)
	return r
}

// Staff represents a library staff member
type Staff struct {
	ID      int64  `json:"staff_id" yaml:"staff_id"`
	Name    string `json:"name" yaml:"name"`
	Role    string `json:"role" yaml:"role"`
	Contact string `json:"contact,omitempty" yaml:"contact,omitempty"`
}

// GetID returns the staff member identifier
func (s Staff) GetID() int64 { return s.ID }

// WithID returns a copy of the staff member with the given identifier
func (s Staff) WithID(id int64) Staff {
	s.ID = id
	return s
}

// Clone returns the staff member itself, it holds no references
func (s Staff) Clone() Staff { return s }

// BookPatch holds the optional fields of a book create or update payload.
// Nil fields are left untouched by Apply.
type BookPatch struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
	Genre  *string `json:"genre,omitempty"`
	Stock  *int    `json:"stock,omitempty"`
}

// Apply merges the patch into b
func (p BookPatch) Apply(b Book) Book {
	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.Author != nil {
		b.Author = strings.TrimSpace(*p.Author)
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.Stock != nil {
		b.Stock = *p.Stock
	}
	return b
}

// ReaderPatch holds the optional fields of a reader create or update payload
type ReaderPatch struct {
	Name    *string `json:"name,omitempty"`
	Contact *string `json:"contact,omitempty"`
}

// Apply merges the patch into r
func (p ReaderPatch) Apply(r Reader) Reader {
	if p.Name != nil {
		r.Name = strings.TrimSpace(*p.Name)
	}
	if p.Contact != nil {
		r.Contact = *p.Contact
	}
	return r
}

// StaffPatch holds the optional fields of a staff create or update payload
type StaffPatch struct {
	Name    *string `json:"name,omitempty"`
	Role    *string `json:"role,omitempty"`
	Contact *string `json:"contact,omitempty"`
}

// Apply merges the patch into s
func (p StaffPatch) Apply(s Staff) Staff {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Role != nil {
		s.Role = strings.TrimSpace(*p.Role)
	}
	if p.Contact != nil {
		s.Contact = *p.Contact
	}
	return s
}
