package api

import (
	"fmt"
	"net/http"

	"library/internal/manager"
	"library/internal/models"
)

// resource serves the CRUD routes of one collection
type resource[T models.Record[T], P manager.Patch[T]] struct {
	server  *Server
	manager *manager.Manager[T, P]
	// key names the record in create and update responses, e.g. "book"
	key string
}

func registerResource[T models.Record[T], P manager.Patch[T]](mux *http.ServeMux, s *Server, key string, m *manager.Manager[T, P]) {
	res := &resource[T, P]{server: s, manager: m, key: key}
	path := "/" + m.Name()

	mux.HandleFunc("GET "+path, res.list)
	mux.HandleFunc("POST "+path, res.create)
	mux.HandleFunc("GET "+path+"/{id}", res.get)
	mux.HandleFunc("PUT "+path+"/{id}", res.update)
	mux.HandleFunc("DELETE "+path+"/{id}", res.delete)
}

func (res *resource[T, P]) list(w http.ResponseWriter, r *http.Request) {
	records, err := res.manager.List(r.Context())
	if err != nil {
		res.server.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (res *resource[T, P]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, err := res.manager.Get(r.Context(), id)
	if err != nil {
		res.server.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (res *resource[T, P]) create(w http.ResponseWriter, r *http.Request) {
	var patch P
	if !res.server.decodeBody(w, r, &patch) {
		return
	}

	rec, err := res.manager.Create(r.Context(), patch)
	if err != nil {
		res.server.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": res.manager.Label() + " created successfully",
		res.key:   rec,
	})
}

func (res *resource[T, P]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var patch P
	if !res.server.decodeBody(w, r, &patch) {
		return
	}

	rec, err := res.manager.Update(r.Context(), id, patch)
	if err != nil {
		res.server.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": res.manager.Label() + " updated successfully",
		res.key:   rec,
	})
}

func (res *resource[T, P]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := res.manager.Delete(r.Context(), id); err != nil {
		res.server.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("%s with ID %d deleted successfully", res.manager.Label(), id),
	})
}
