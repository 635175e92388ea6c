package api

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"local-marketplace/internal/domain"
	"local-marketplace/internal/store"
)

// Paths robots.txt keeps crawlers away from.
var disallowedPaths = []string{"/admin/", "/login", "/sign-up"}

const sitemapPageSize = 100

func (h *HTTPHandler) registerSiteRoutes(r chi.Router) {
	r.Get("/", h.redirectHome)
	r.Get("/city/{slug}", h.redirectCity)
	r.Get("/robots.txt", h.robots)
	r.Get("/sitemap.xml", h.sitemap)
	r.Get("/healthz", h.healthz)
	r.Get("/products/{slug}", h.productPage)
	r.Get("/{city}", h.cityPage)
}

func (h *HTTPHandler) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+h.site.DefaultCity, http.StatusTemporaryRedirect)
}

// slugParam returns the normalized slug path parameter. Anything that is not a slug gets a 404,
// so path values never reach a Location header or a store query.
func slugParam(w http.ResponseWriter, r *http.Request, name, notFound string) (string, bool) {
	slug := domain.NormalizeSlug(chi.URLParam(r, name))
	if !domain.ValidSlug(slug) {
		respondWithError(w, http.StatusNotFound, notFound)
		return "", false
	}
	return slug, true
}

// redirectCity moves the legacy /city/{slug} pages to /{slug} for good.
func (h *HTTPHandler) redirectCity(w http.ResponseWriter, r *http.Request) {
	slug, ok := slugParam(w, r, "slug", "city not found")
	if !ok {
		return
	}
	http.Redirect(w, r, "/"+slug, http.StatusPermanentRedirect)
}

func (h *HTTPHandler) robots(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	for _, p := range disallowedPaths {
		fmt.Fprintf(&b, "Disallow: %s\n", p)
	}
	fmt.Fprintf(&b, "\nSitemap: %s\n", h.sitemapURL())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

func (h *HTTPHandler) sitemapURL() string {
	if h.site.SitemapURL != "" {
		return h.site.SitemapURL
	}
	return strings.TrimRight(h.site.BaseURL, "/") + "/sitemap.xml"
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (h *HTTPHandler) sitemap(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimRight(h.site.BaseURL, "/")
	set := sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	cities, err := activeDocuments(r.Context(), h.stores.Cities)
	if err != nil {
		h.logger.Error("sitemap: listing cities failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to build sitemap")
		return
	}
	for _, c := range cities {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + "/" + c.Slug, LastMod: lastMod(c.UpdatedAt)})
	}

	products, err := activeDocuments(r.Context(), h.stores.Products)
	if err != nil {
		h.logger.Error("sitemap: listing products failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to build sitemap")
		return
	}
	for _, p := range products {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + "/products/" + p.Slug, LastMod: lastMod(p.UpdatedAt)})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		h.logger.Warn("sitemap: encode failed", zap.Error(err))
	}
}

func lastMod(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// activeDocuments pages through every active document of a collection.
func activeDocuments[T any](ctx context.Context, repo store.Repository[T]) ([]T, error) {
	active := true
	var out []T
	for offset := 0; ; offset += sitemapPageSize {
		page, total, err := repo.List(ctx, store.ListParams{Limit: sitemapPageSize, Offset: offset, IsActive: &active})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) == 0 || offset+len(page) >= total {
			return out, nil
		}
	}
}

// CityPage is the storefront payload behind /{city}.
type CityPage struct {
	City             *domain.City             `json:"city"`
	Services         []domain.Service         `json:"services"`
	LocationProfiles []domain.LocationProfile `json:"location_profiles"`
}

func (h *HTTPHandler) cityPage(w http.ResponseWriter, r *http.Request) {
	slug, ok := slugParam(w, r, "city", "city not found")
	if !ok {
		return
	}

	city, err := h.stores.Cities.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "city not found")
			return
		}
		h.logger.Error("city page: lookup failed", zap.String("slug", slug), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load city")
		return
	}
	if !city.IsActive {
		respondWithError(w, http.StatusNotFound, "city not found")
		return
	}

	page := CityPage{City: city, Services: []domain.Service{}, LocationProfiles: []domain.LocationProfile{}}
	active := true
	params := store.ListParams{Limit: maxPageLimit, IsActive: &active, CitySlug: &city.Slug}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		services, _, err := h.stores.Services.List(ctx, params)
		if err != nil {
			return fmt.Errorf("list services: %w", err)
		}
		if services != nil {
			page.Services = services
		}
		return nil
	})
	g.Go(func() error {
		profiles, _, err := h.stores.LocationProfiles.List(ctx, params)
		if err != nil {
			return fmt.Errorf("list location profiles: %w", err)
		}
		if profiles != nil {
			page.LocationProfiles = profiles
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("city page: listing failed", zap.String("slug", slug), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load city")
		return
	}

	respondWithJSON(w, http.StatusOK, DataResponse{Data: page})
}

func (h *HTTPHandler) productPage(w http.ResponseWriter, r *http.Request) {
	slug, ok := slugParam(w, r, "slug", "product not found")
	if !ok {
		return
	}
	product, err := h.stores.Products.GetBySlug(r.Context(), slug)
	if err == nil && !product.IsActive {
		err = store.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("product page: lookup failed", zap.String("slug", slug), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load product")
		return
	}
	respondWithJSON(w, http.StatusOK, DataResponse{Data: product})
}

func (h *HTTPHandler) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			status[name] = "down"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "up"
	}
	respondWithJSON(w, code, status)
}
