package api

import (
	"net/http"

	"library/internal/manager"
	"library/internal/models"
)

// BookDetails is the nested part of the advanced book payload
type BookDetails struct {
	Genre *string `json:"genre,omitempty"`
	Stock *int    `json:"stock,omitempty"`
}

// AdvancedBookRequest is a book payload with genre and stock nested under details
type AdvancedBookRequest struct {
	Title   *string      `json:"title"`
	Author  *string      `json:"author"`
	Details *BookDetails `json:"details"`
}

type advancedBookDetails struct {
	Genre string `json:"genre,omitempty"`
	Stock int    `json:"stock"`
}

// AdvancedBookResponse is the nested representation of a stored book
type AdvancedBookResponse struct {
	BookID  int64               `json:"book_id,omitempty"`
	Title   string              `json:"title"`
	Author  string              `json:"author"`
	Details advancedBookDetails `json:"details"`
}

func (req AdvancedBookRequest) patch() (models.BookPatch, error) {
	if req.Details == nil {
		return models.BookPatch{}, &manager.ValidationError{
			Entity: manager.BookEntity.Label,
			Fields: map[string]string{"details": "Field required"},
		}
	}
	return models.BookPatch{
		Title:  req.Title,
		Author: req.Author,
		Genre:  req.Details.Genre,
		Stock:  req.Details.Stock,
	}, nil
}

func newAdvancedBook(b models.Book) AdvancedBookResponse {
	return AdvancedBookResponse{
		BookID: b.ID,
		Title:  b.Title,
		Author: b.Author,
		Details: advancedBookDetails{
			Genre: b.Genre,
			Stock: b.Stock,
		},
	}
}

// ReaderDetails is the nested part of the advanced reader payload
type ReaderDetails struct {
	Contact *string `json:"contact,omitempty"`
}

// AdvancedReaderRequest is a reader payload with contact nested under details
type AdvancedReaderRequest struct {
	Name    *string        `json:"name"`
	Details *ReaderDetails `json:"details"`
}

type advancedReaderDetails struct {
	Contact       string  `json:"contact,omitempty"`
	BorrowedBooks []int64 `json:"borrowed_books"`
}

// AdvancedReaderResponse is the nested representation of a stored reader
type AdvancedReaderResponse struct {
	ReaderID int64                 `json:"reader_id,omitempty"`
	Name     string                `json:"name"`
	Details  advancedReaderDetails `json:"details"`
}

func (req AdvancedReaderRequest) patch() (models.ReaderPatch, error) {
	if req.Details == nil {
		return models.ReaderPatch{}, &manager.ValidationError{
			Entity: manager.ReaderEntity.Label,
			Fields: map[string]string{"details": "Field required"},
		}
	}
	return models.ReaderPatch{
		Name:    req.Name,
		Contact: req.Details.Contact,
	}, nil
}

func newAdvancedReader(r models.Reader) AdvancedReaderResponse {
	borrowed := r.BorrowedBooks
	if borrowed == nil {
		borrowed = []int64{}
	}
	return AdvancedReaderResponse{
		ReaderID: r.ID,
		Name:     r.Name,
		Details: advancedReaderDetails{
			Contact:       r.Contact,
			BorrowedBooks: borrowed,
		},
	}
}

func (s *Server) handleCreateBookAdvanced(w http.ResponseWriter, r *http.Request) {
	var req AdvancedBookRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	patch, err := req.patch()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	book, err := s.books.Create(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAdvancedBook(book))
}

func (s *Server) handleGetBookAdvanced(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	book, err := s.books.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAdvancedBook(book))
}

func (s *Server) handleCreateReaderAdvanced(w http.ResponseWriter, r *http.Request) {
	var req AdvancedReaderRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	patch, err := req.patch()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	reader, err := s.readers.Create(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAdvancedReader(reader))
}

func (s *Server) handleGetReaderAdvanced(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	reader, err := s.readers.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAdvancedReader(reader))
}

type validationResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// handleValidateBook checks an advanced book payload without storing it
func (s *Server) handleValidateBook(w http.ResponseWriter, r *http.Request) {
	var req AdvancedBookRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	patch, err := req.patch()
	if err == nil {
		var book models.Book
		book, err = s.books.Validate(patch)
		if err == nil {
			writeJSON(w, http.StatusOK, validationResponse{
				Valid:   true,
				Message: "JSON payload is valid",
				Data:    newAdvancedBook(book),
			})
			return
		}
	}
	s.writeError(w, r, err)
}

// handleValidateReader checks an advanced reader payload without storing it
func (s *Server) handleValidateReader(w http.ResponseWriter, r *http.Request) {
	var req AdvancedReaderRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	patch, err := req.patch()
	if err == nil {
		var reader models.Reader
		reader, err = s.readers.Validate(patch)
		if err == nil {
			writeJSON(w, http.StatusOK, validationResponse{
				Valid:   true,
				Message: "JSON payload is valid",
				Data:    newAdvancedReader(reader),
			})
			return
		}
	}
	s.writeError(w, r, err)
}
