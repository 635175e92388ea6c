package api

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"local-marketplace/internal/config"
	"local-marketplace/internal/domain"
	"local-marketplace/internal/schema"
	"local-marketplace/internal/store"
)

// MockRepository is a mock implementation of store.Repository for any document type.
type MockRepository[T any] struct {
	mock.Mock
}

func (m *MockRepository[T]) Create(ctx context.Context, doc *T) (*T, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T]) List(ctx context.Context, params store.ListParams) ([]T, int, error) {
	args := m.Called(ctx, params)
	var docs []T
	if arg0 := args.Get(0); arg0 != nil {
		docs = arg0.([]T)
	}
	return docs, args.Int(1), args.Error(2)
}

func (m *MockRepository[T]) Update(ctx context.Context, doc *T) (*T, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockStores struct {
	cities           *MockRepository[domain.City]
	businesses       *MockRepository[domain.Business]
	products         *MockRepository[domain.Product]
	categories       *MockRepository[domain.ProductCategory]
	tags             *MockRepository[domain.ProductTag]
	services         *MockRepository[domain.Service]
	locationProfiles *MockRepository[domain.LocationProfile]
	terms            *MockRepository[domain.TermsAndConditions]
}

func newMockStores() *mockStores {
	return &mockStores{
		cities:           new(MockRepository[domain.City]),
		businesses:       new(MockRepository[domain.Business]),
		products:         new(MockRepository[domain.Product]),
		categories:       new(MockRepository[domain.ProductCategory]),
		tags:             new(MockRepository[domain.ProductTag]),
		services:         new(MockRepository[domain.Service]),
		locationProfiles: new(MockRepository[domain.LocationProfile]),
		terms:            new(MockRepository[domain.TermsAndConditions]),
	}
}

func (m *mockStores) stores() Stores {
	return Stores{
		Cities:           m.cities,
		Businesses:       m.businesses,
		Products:         m.products,
		Categories:       m.categories,
		Tags:             m.tags,
		Services:         m.services,
		LocationProfiles: m.locationProfiles,
		Terms:            m.terms,
	}
}

func testConfig(adminToken string) *config.Config {
	return &config.Config{
		Site: config.SiteConfig{
			BaseURL:     "https://marketplace.example.in",
			DefaultCity: "patna",
			SitemapURL:  "https://marketplace.example.in/sitemap.xml",
			ImageHosts:  []string{"res.cloudinary.com"},
		},
		Admin: config.AdminConfig{Token: adminToken},
	}
}

func newTestHandler(t *testing.T, m *mockStores, adminToken string) (*HTTPHandler, *chi.Mux) {
	t.Helper()
	cfg := testConfig(adminToken)
	registry, err := schema.New(cfg.Site.ImageHosts)
	require.NoError(t, err)

	handler := NewHTTPHandler(m.stores(), registry, cfg, zaptest.NewLogger(t))
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return handler, router
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T, m *mockStores, adminToken string) *httptest.Server {
	t.Helper()
	_, router := newTestHandler(t, m, adminToken)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// PtrTo returns a pointer to v.
func PtrTo[T any](v T) *T {
	return &v
}
