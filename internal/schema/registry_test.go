package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"local-marketplace/internal/domain"
)

var testImageHosts = []string{"res.cloudinary.com", "images.unsplash.com", "ik.imagekit.io"}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(testImageHosts)
	require.NoError(t, err)
	return r
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	out := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		out[i] = f.Field
	}
	return out
}

func TestValidate_CityNormalizesSlug(t *testing.T) {
	r := newTestRegistry(t)
	city := &domain.City{Name: "Patna", Slug: "  PATNA "}

	require.NoError(t, r.Validate(domain.KindCity, city))
	assert.Equal(t, "patna", city.Slug)
}

func TestValidate_RejectsBadSlug(t *testing.T) {
	r := newTestRegistry(t)
	for _, slug := range []string{"new delhi", "a--b", "-patna", "patna_city", ""} {
		err := r.Validate(domain.KindCity, &domain.City{Name: "X", Slug: slug})
		require.Error(t, err, "slug %q", slug)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Equal(t, []string{"slug"}, fieldsOf(t, err))
	}
}

func TestValidate_SEOLengthLimits(t *testing.T) {
	r := newTestRegistry(t)
	p := &domain.Product{
		Name: "Split AC Service",
		Slug: "split-ac-service",
		SEO: &domain.SEO{
			MetaTitle:       strings.Repeat("t", 71),
			MetaDescription: strings.Repeat("d", 161),
			CanonicalURL:    "not a url",
		},
	}

	err := r.Validate(domain.KindProduct, p)
	require.Error(t, err)
	want := []string{"seo.meta_title", "seo.meta_description", "seo.canonical_url"}
	if diff := cmp.Diff(want, fieldsOf(t, err)); diff != "" {
		t.Errorf("field errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_SEOAtLimitsPasses(t *testing.T) {
	r := newTestRegistry(t)
	p := &domain.ProductTag{
		Name: "Cooling",
		Slug: "cooling",
		SEO: &domain.SEO{
			MetaTitle:       strings.Repeat("t", 70),
			MetaDescription: strings.Repeat("d", 160),
			Keywords:        []string{"ac", "cooler"},
			CanonicalURL:    "https://example.com/tags/cooling",
			NoIndex:         true,
		},
	}
	assert.NoError(t, r.Validate(domain.KindProductTag, p))
}

func TestValidate_ImageHostAllowList(t *testing.T) {
	r := newTestRegistry(t)

	ok := &domain.ProductCategory{Name: "AC", Slug: "ac", ImageURL: "https://res.cloudinary.com/demo/ac.png"}
	assert.NoError(t, r.Validate(domain.KindProductCategory, ok))

	for _, u := range []string{"http://res.cloudinary.com/demo/ac.png", "https://evil.example.com/ac.png"} {
		bad := &domain.ProductCategory{Name: "AC", Slug: "ac", ImageURL: u}
		err := r.Validate(domain.KindProductCategory, bad)
		require.Error(t, err, u)
		assert.Equal(t, []string{"image_url"}, fieldsOf(t, err))
	}
}

func TestValidate_TermsEnums(t *testing.T) {
	r := newTestRegistry(t)
	terms := &domain.TermsAndConditions{
		Title:         "Service terms",
		Content:       "...",
		ApplicableTo:  "everyone",
		Version:       "1.0",
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:        "archived",
	}

	err := r.Validate(domain.KindTerms, terms)
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"applicable_to", "status"}, fieldsOf(t, err))
}

func TestValidate_TermsRequiresEffectiveFrom(t *testing.T) {
	r := newTestRegistry(t)
	terms := &domain.TermsAndConditions{Title: "T", Content: "C", Version: "1"}

	err := r.Validate(domain.KindTerms, terms)
	require.Error(t, err)
	assert.Equal(t, []string{"effective_from"}, fieldsOf(t, err))
	assert.Equal(t, domain.TermsStatusActive, terms.Status)
}

func TestValidate_BusinessAttributes(t *testing.T) {
	r := newTestRegistry(t)

	good := &domain.Business{
		Name:       "Sharma Cooling",
		Slug:       "sharma-cooling",
		Attributes: json.RawMessage(`{"opening_hours":"9-7","established_year":2012,"service_areas":["kankarbagh"]}`),
	}
	assert.NoError(t, r.Validate(domain.KindBusiness, good))

	bad := &domain.Business{
		Name:       "Sharma Cooling",
		Slug:       "sharma-cooling",
		Attributes: json.RawMessage(`{"established_year":"long ago","service_areas":[""]}`),
	}
	err := r.Validate(domain.KindBusiness, bad)
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"attributes.established_year", "attributes.service_areas.0"}, fieldsOf(t, err))
}

func TestValidate_BusinessWithoutAttributes(t *testing.T) {
	r := newTestRegistry(t)
	b := &domain.Business{Name: "Sharma Cooling", Slug: "sharma-cooling", Attributes: json.RawMessage("null")}
	assert.NoError(t, r.Validate(domain.KindBusiness, b))
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"product_tag", "product_tags", "Product-Tags"} {
		e, err := ParseKind(name)
		require.NoError(t, err, name)
		assert.Equal(t, domain.KindProductTag, e.Kind)
		assert.Equal(t, "/api/products/tags", e.Path)
	}

	_, err := ParseKind("widgets")
	assert.Error(t, err)
}

func TestEntities_FactoriesMatchKinds(t *testing.T) {
	for _, e := range Entities() {
		doc := e.New()
		require.NotNil(t, doc, e.Kind)
		assert.Equal(t, e.HasSlug, e.Kind != domain.KindTerms, e.Kind)
		assert.True(t, strings.HasPrefix(e.Path, "/api/"), e.Kind)
	}
	assert.Equal(t, "/api/admin/location-profiles", MustLookup(domain.KindLocationProfile).Path)
}
