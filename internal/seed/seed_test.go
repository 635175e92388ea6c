package seed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"local-marketplace/internal/domain"
	"local-marketplace/internal/schema"
	"local-marketplace/internal/store"
)

const sampleSeed = `
cities:
  - name: Patna
    slug: Patna
    state: Bihar
    is_active: true
  - name: Gaya
    slug: gaya
categories:
  - name: Home Appliances
    slug: home-appliances
    is_active: true
products:
  - name: Split AC Service
    slug: split-ac-service
    category_slug: home-appliances
    price: 499
    image_url: https://res.cloudinary.com/demo/ac.jpg
    is_active: true
    seo:
      meta_title: Split AC Service in Patna
location_profiles:
  - city_slug: patna
    locality: Boring Road
    slug: boring-road
    pincode: "800001"
terms:
  - title: General terms
    content: Bookings are confirmed once paid.
    version: "1.0"
    effective_from: 2026-01-01
`

// fakeCreator records created documents and rejects slugs listed in existing.
type fakeCreator[T any, PT store.DocPtr[T]] struct {
	created  []string
	existing map[string]bool
	err      error
}

func (f *fakeCreator[T, PT]) Create(_ context.Context, doc *T) (*T, error) {
	if f.err != nil {
		return nil, f.err
	}
	slug := PT(doc).SlugKey()
	if f.existing[slug] {
		return nil, store.ErrSlugExists
	}
	f.created = append(f.created, slug)
	return doc, nil
}

func newRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r, err := schema.New([]string{"res.cloudinary.com"})
	require.NoError(t, err)
	return r
}

func TestLoad_ValidatesAndOrdersDocuments(t *testing.T) {
	plan, err := Load(strings.NewReader(sampleSeed), newRegistry(t))
	require.NoError(t, err)

	var kinds []domain.Kind
	for _, item := range plan.Items {
		kinds = append(kinds, item.Kind)
	}
	want := []domain.Kind{
		domain.KindCity, domain.KindCity, domain.KindProductCategory, domain.KindProduct,
		domain.KindLocationProfile, domain.KindTerms,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("plan kinds mismatch (-want +got):\n%s", diff)
	}

	city := plan.Items[0].Doc.(*domain.City)
	assert.Equal(t, "patna", city.Slug)

	product := plan.Items[3].Doc.(*domain.Product)
	require.NotNil(t, product.Price)
	assert.Equal(t, 499.0, *product.Price)
	require.NotNil(t, product.SEO)
	assert.Equal(t, "Split AC Service in Patna", product.SEO.MetaTitle)

	terms := plan.Items[5].Doc.(*domain.TermsAndConditions)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), terms.EffectiveFrom)
	assert.Equal(t, domain.ApplicableToAll, terms.ApplicableTo)
	assert.Equal(t, domain.TermsStatusActive, terms.Status)
}

func TestLoad_ReportsEveryInvalidDocument(t *testing.T) {
	input := `
cities:
  - name: Patna
    slug: "patna city"
products:
  - name: Cooler Repair
    slug: cooler-repair
    image_url: http://res.cloudinary.com/demo/cooler.jpg
`
	_, err := Load(strings.NewReader(input), newRegistry(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrValidation)
	assert.Contains(t, err.Error(), "cities[0]")
	assert.Contains(t, err.Error(), "products[0]")
}

func TestLoad_RejectsUnknownSectionsAndFields(t *testing.T) {
	_, err := Load(strings.NewReader("vendors:\n  - name: x\n"), newRegistry(t))
	assert.ErrorContains(t, err, `unknown section "vendors"`)

	_, err = Load(strings.NewReader("cities:\n  - name: Patna\n    slug: patna\n    population: 2000000\n"), newRegistry(t))
	assert.ErrorContains(t, err, "cities[0]")
}

func TestLoad_EmptyFile(t *testing.T) {
	plan, err := Load(strings.NewReader(""), newRegistry(t))
	require.NoError(t, err)
	assert.Empty(t, plan.Items)
}

func TestApply_SkipsExistingSlugs(t *testing.T) {
	plan, err := Load(strings.NewReader(sampleSeed), newRegistry(t))
	require.NoError(t, err)

	cities := &fakeCreator[domain.City, *domain.City]{existing: map[string]bool{"patna": true}}
	categories := &fakeCreator[domain.ProductCategory, *domain.ProductCategory]{}
	products := &fakeCreator[domain.Product, *domain.Product]{}
	profiles := &fakeCreator[domain.LocationProfile, *domain.LocationProfile]{}
	terms := &fakeCreator[domain.TermsAndConditions, *domain.TermsAndConditions]{}

	targets := Targets{}
	Register[domain.City](targets, domain.KindCity, cities)
	Register[domain.ProductCategory](targets, domain.KindProductCategory, categories)
	Register[domain.Product](targets, domain.KindProduct, products)
	Register[domain.LocationProfile](targets, domain.KindLocationProfile, profiles)
	Register[domain.TermsAndConditions](targets, domain.KindTerms, terms)

	report, err := plan.Apply(context.Background(), targets, zaptest.NewLogger(t))
	require.NoError(t, err)

	want := Report{
		Created: map[domain.Kind]int{
			domain.KindCity: 1, domain.KindProductCategory: 1, domain.KindProduct: 1,
			domain.KindLocationProfile: 1, domain.KindTerms: 1,
		},
		Skipped: map[domain.Kind]int{domain.KindCity: 1},
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"gaya"}, cities.created)
	assert.Len(t, terms.created, 1)
}

func TestApply_StopsOnStoreError(t *testing.T) {
	plan, err := Load(strings.NewReader("cities:\n  - name: Patna\n    slug: patna\n"), newRegistry(t))
	require.NoError(t, err)

	targets := Targets{}
	Register[domain.City](targets, domain.KindCity, &fakeCreator[domain.City, *domain.City]{err: errors.New("connection refused")})

	_, err = plan.Apply(context.Background(), targets, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, `create city "patna"`)
}

func TestApply_MissingTarget(t *testing.T) {
	plan, err := Load(strings.NewReader("tags:\n  - name: Eco\n    slug: eco\n"), newRegistry(t))
	require.NoError(t, err)

	_, err = plan.Apply(context.Background(), Targets{}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "no repository registered for product_tag")
}

func TestReadDocument(t *testing.T) {
	entity := schema.MustLookup(domain.KindService)
	doc, err := ReadDocument(strings.NewReader("name: AC Repair\nslug: ac-repair\ncity_slug: patna\nstarting_price: 299.5\n"), entity)
	require.NoError(t, err)

	svc, ok := doc.(*domain.Service)
	require.True(t, ok)
	assert.Equal(t, "ac-repair", svc.Slug)
	require.NotNil(t, svc.StartingPrice)
	assert.Equal(t, 299.5, *svc.StartingPrice)

	_, err = ReadDocument(strings.NewReader("name: [unclosed"), entity)
	assert.Error(t, err)
}
