package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"local-marketplace/internal/config"
	"local-marketplace/internal/domain"
	"local-marketplace/internal/schema"
	"local-marketplace/internal/store"
)

// Stores groups one repository per collection. Storefront lookups expect the
// Redis-backed repositories where caching is enabled.
type Stores struct {
	Cities           store.Repository[domain.City]
	Businesses       store.Repository[domain.Business]
	Products         store.Repository[domain.Product]
	Categories       store.Repository[domain.ProductCategory]
	Tags             store.Repository[domain.ProductTag]
	Services         store.Repository[domain.Service]
	LocationProfiles store.Repository[domain.LocationProfile]
	Terms            store.Repository[domain.TermsAndConditions]
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	stores     Stores
	registry   *schema.Registry
	site       config.SiteConfig
	adminToken string
	logger     *zap.Logger
	checks     map[string]HealthCheck
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(stores Stores, registry *schema.Registry, cfg *config.Config, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		stores:     stores,
		registry:   registry,
		site:       cfg.Site,
		adminToken: cfg.Admin.Token,
		logger:     logger.Named("http"),
		checks:     make(map[string]HealthCheck),
	}
}

// AddHealthCheck registers a dependency probed by /healthz.
func (h *HTTPHandler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse wraps every successful JSON payload.
type DataResponse struct {
	Data any `json:"data"`
}

// PaginationInfo describes one page of a listing.
type PaginationInfo struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// ListResponse is the body of every collection listing.
type ListResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination PaginationInfo `json:"pagination"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	if payload == nil {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// Headers are already out, nothing useful to send on failure.
	_ = json.NewEncoder(w).Encode(payload)
}

// --- Route Registration ---

// RegisterRoutes sets up the storefront and REST routes.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin(h.adminToken))

		// Nested collections are mounted before /api/products so their static prefix wins over {id}.
		mountResource(r, h, domain.KindProductCategory, h.stores.Categories)
		mountResource(r, h, domain.KindProductTag, h.stores.Tags)
		mountResource(r, h, domain.KindProduct, h.stores.Products)
		mountResource(r, h, domain.KindCity, h.stores.Cities)
		mountResource(r, h, domain.KindBusiness, h.stores.Businesses)
		mountResource(r, h, domain.KindService, h.stores.Services)
		mountResource(r, h, domain.KindLocationProfile, h.stores.LocationProfiles)
		mountResource(r, h, domain.KindTerms, h.stores.Terms)
	})

	h.registerSiteRoutes(r)
}

func mountResource[T any, PT store.DocPtr[T]](r chi.Router, h *HTTPHandler, kind domain.Kind, repo store.Repository[T]) {
	rs := &resource[T, PT]{
		entity:   schema.MustLookup(kind),
		repo:     repo,
		registry: h.registry,
		logger:   h.logger.With(zap.String("collection", schema.MustLookup(kind).Collection)),
	}
	r.Route(rs.entity.Path, rs.routes)
}
