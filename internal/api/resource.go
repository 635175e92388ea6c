package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"local-marketplace/internal/domain"
	"local-marketplace/internal/schema"
	"local-marketplace/internal/store"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// resource serves the CRUD endpoints of one collection.
type resource[T any, PT store.DocPtr[T]] struct {
	entity   schema.Entity
	repo     store.Repository[T]
	registry *schema.Registry
	logger   *zap.Logger
}

func (rs *resource[T, PT]) routes(r chi.Router) {
	r.Post("/", rs.create) // POST {path}
	r.Get("/", rs.list)    // GET {path}
	if rs.entity.HasSlug {
		r.Get("/slug/{slug}", rs.getBySlug) // GET {path}/slug/{slug}
	}
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", rs.get)       // GET {path}/{id}
		r.Put("/", rs.update)    // PUT {path}/{id}
		r.Delete("/", rs.delete) // DELETE {path}/{id}
	})
}

// decode reads and validates a request body. On failure the response is already written.
func (rs *resource[T, PT]) decode(w http.ResponseWriter, r *http.Request) (*T, bool) {
	defer r.Body.Close()

	doc := new(T)
	if err := json.NewDecoder(r.Body).Decode(doc); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return nil, false
	}
	*PT(doc).Base() = domain.Meta{}

	if err := rs.registry.Validate(rs.entity.Kind, PT(doc)); err != nil {
		if errors.Is(err, schema.ErrValidation) {
			respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		} else {
			rs.logger.Error("schema validation errored", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to validate document")
		}
		return nil, false
	}
	return doc, true
}

// idParam extracts and checks the {id} path parameter.
func idParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id format")
		return "", false
	}
	return id, true
}

// storeError maps a store failure to a response.
func (rs *resource[T, PT]) storeError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("%s not found", rs.label()))
	case errors.Is(err, store.ErrSlugExists):
		respondWithError(w, http.StatusConflict, fmt.Sprintf("A %s with this slug already exists", rs.label()))
	default:
		rs.logger.Error(op+" store operation failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s %s", op, rs.label()))
	}
}

func (rs *resource[T, PT]) label() string {
	return strings.ReplaceAll(string(rs.entity.Kind), "_", " ")
}

func (rs *resource[T, PT]) create(w http.ResponseWriter, r *http.Request) {
	doc, ok := rs.decode(w, r)
	if !ok {
		return
	}

	created, err := rs.repo.Create(r.Context(), doc)
	if err != nil {
		rs.storeError(w, err, "create")
		return
	}

	rs.logger.Info("document created", zap.String("id", PT(created).Base().ID))
	respondWithJSON(w, http.StatusCreated, DataResponse{Data: created})
}

func (rs *resource[T, PT]) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}

	params := store.ListParams{Limit: limit, Offset: (page - 1) * limit}
	if s := strings.TrimSpace(q.Get("q")); s != "" {
		params.SearchQuery = &s
	}
	if s := q.Get("is_active"); s != "" {
		active, err := strconv.ParseBool(s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid is_active value")
			return
		}
		params.IsActive = &active
	}
	if s := domain.NormalizeSlug(q.Get("city")); s != "" {
		params.CitySlug = &s
	}

	docs, total, err := rs.repo.List(r.Context(), params)
	if err != nil {
		rs.storeError(w, err, "list")
		return
	}
	if docs == nil {
		docs = []T{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	respondWithJSON(w, http.StatusOK, ListResponse[T]{
		Data: docs,
		Pagination: PaginationInfo{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: totalPages,
		},
	})
}

func (rs *resource[T, PT]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	doc, err := rs.repo.GetByID(r.Context(), id)
	if err != nil {
		rs.storeError(w, err, "retrieve")
		return
	}
	respondWithJSON(w, http.StatusOK, DataResponse{Data: doc})
}

func (rs *resource[T, PT]) getBySlug(w http.ResponseWriter, r *http.Request) {
	doc, err := rs.repo.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		rs.storeError(w, err, "retrieve")
		return
	}
	respondWithJSON(w, http.StatusOK, DataResponse{Data: doc})
}

func (rs *resource[T, PT]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	doc, ok := rs.decode(w, r)
	if !ok {
		return
	}
	PT(doc).Base().ID = id

	updated, err := rs.repo.Update(r.Context(), doc)
	if err != nil {
		rs.storeError(w, err, "update")
		return
	}

	rs.logger.Info("document updated", zap.String("id", id))
	respondWithJSON(w, http.StatusOK, DataResponse{Data: updated})
}

func (rs *resource[T, PT]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := rs.repo.Delete(r.Context(), id); err != nil {
		rs.storeError(w, err, "delete")
		return
	}

	rs.logger.Info("document deleted", zap.String("id", id))
	respondWithJSON(w, http.StatusNoContent, nil)
}
