package domain

import (
	"regexp"
	"strings"
	"time"
)

// Kind names an entity collection.
type Kind string

const (
	KindCity            Kind = "city"
	KindBusiness        Kind = "business"
	KindProduct         Kind = "product"
	KindProductCategory Kind = "product_category"
	KindProductTag      Kind = "product_tag"
	KindService         Kind = "service"
	KindLocationProfile Kind = "location_profile"
	KindTerms           Kind = "terms"
)

// Meta is the bookkeeping carried by every stored document.
// The store owns these fields; values sent by clients are ignored.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Base returns the document's metadata.
func (m *Meta) Base() *Meta { return m }

// Document is implemented by every entity persisted in the document store.
type Document interface {
	Base() *Meta
	// SlugKey returns the unique routing key, or "" for kinds without one.
	SlugKey() string
	// Normalize canonicalizes user input before validation.
	Normalize()
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// NormalizeSlug trims and lowercases a slug.
func NormalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidSlug reports whether s is already a normalized slug: lowercase words of letters and
// digits joined by single hyphens.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// SEO is the optional search metadata block attached to content entities.
type SEO struct {
	MetaTitle       string   `json:"meta_title,omitempty" validate:"max=70"`
	MetaDescription string   `json:"meta_description,omitempty" validate:"max=160"`
	Keywords        []string `json:"keywords,omitempty" validate:"omitempty,max=20,dive,required,max=60"`
	CanonicalURL    string   `json:"canonical_url,omitempty" validate:"omitempty,url,max=2048"`
	NoIndex         bool     `json:"no_index"`
}

func (s *SEO) normalize() {
	if s == nil {
		return
	}
	s.MetaTitle = strings.TrimSpace(s.MetaTitle)
	s.MetaDescription = strings.TrimSpace(s.MetaDescription)
	kept := s.Keywords[:0]
	for _, k := range s.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			kept = append(kept, k)
		}
	}
	s.Keywords = kept
}
