package schema

import (
	"fmt"
	"strings"

	"local-marketplace/internal/domain"
)

// Entity describes where a kind lives: its collection, its REST path and the
// admin listing route that create/update flows return to.
type Entity struct {
	Kind       domain.Kind
	Collection string
	Path       string
	ListRoute  string
	HasSlug    bool
	New        func() domain.Document
}

var entities = []Entity{
	{
		Kind: domain.KindCity, Collection: "cities", Path: "/api/cities", ListRoute: "/admin/cities", HasSlug: true,
		New: func() domain.Document { return &domain.City{} },
	},
	{
		Kind: domain.KindBusiness, Collection: "businesses", Path: "/api/business", ListRoute: "/admin/business", HasSlug: true,
		New: func() domain.Document { return &domain.Business{} },
	},
	{
		Kind: domain.KindProduct, Collection: "products", Path: "/api/products", ListRoute: "/admin/products", HasSlug: true,
		New: func() domain.Document { return &domain.Product{} },
	},
	{
		Kind: domain.KindProductCategory, Collection: "product_categories", Path: "/api/products/categories",
		ListRoute: "/admin/products/categories", HasSlug: true,
		New: func() domain.Document { return &domain.ProductCategory{} },
	},
	{
		Kind: domain.KindProductTag, Collection: "product_tags", Path: "/api/products/tags",
		ListRoute: "/admin/products/tags", HasSlug: true,
		New: func() domain.Document { return &domain.ProductTag{} },
	},
	{
		Kind: domain.KindService, Collection: "services", Path: "/api/service", ListRoute: "/admin/services", HasSlug: true,
		New: func() domain.Document { return &domain.Service{} },
	},
	{
		Kind: domain.KindLocationProfile, Collection: "location_profiles", Path: "/api/admin/location-profiles",
		ListRoute: "/admin/location-profiles", HasSlug: true,
		New: func() domain.Document { return &domain.LocationProfile{} },
	},
	{
		Kind: domain.KindTerms, Collection: "terms_and_conditions", Path: "/api/terms", ListRoute: "/admin/terms",
		New: func() domain.Document { return &domain.TermsAndConditions{} },
	},
}

// Entities returns every registered entity in declaration order.
func Entities() []Entity {
	out := make([]Entity, len(entities))
	copy(out, entities)
	return out
}

// Lookup returns the entity registered for kind.
func Lookup(kind domain.Kind) (Entity, bool) {
	for _, e := range entities {
		if e.Kind == kind {
			return e, true
		}
	}
	return Entity{}, false
}

// MustLookup is Lookup for kinds known at compile time.
func MustLookup(kind domain.Kind) Entity {
	e, ok := Lookup(kind)
	if !ok {
		panic(fmt.Sprintf("schema: unknown kind %q", kind))
	}
	return e
}

// ParseKind resolves a user-supplied name: a kind ("product_tag"), a collection
// ("product_tags") or a dashed form ("product-tags").
func ParseKind(name string) (Entity, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, e := range entities {
		if string(e.Kind) == n || e.Collection == n {
			return e, nil
		}
	}
	return Entity{}, fmt.Errorf("schema: unknown entity %q", name)
}
