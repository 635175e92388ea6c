package store

import (
	"context"
)

// ListParams holds parameters for listing documents (pagination and filters).
type ListParams struct {
	Limit       int
	Offset      int
	SearchQuery *string // Case-insensitive match on the document name
	IsActive    *bool   // Filter by active flag
	CitySlug    *string // Filter by city_slug, for city-scoped kinds
}

// Repository defines the document operations for one collection.
type Repository[T any] interface {
	Create(ctx context.Context, doc *T) (*T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	GetBySlug(ctx context.Context, slug string) (*T, error)
	List(ctx context.Context, params ListParams) ([]T, int, error) // Returns documents and total count for pagination
	Update(ctx context.Context, doc *T) (*T, error)
	Delete(ctx context.Context, id string) error
}
