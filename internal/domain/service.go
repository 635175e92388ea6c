package domain

import "strings"

// Service is a bookable local service offered in a city.
type Service struct {
	Meta
	Name          string   `json:"name" validate:"required,max=255"`
	Slug          string   `json:"slug" validate:"required,slug,max=255"`
	CitySlug      string   `json:"city_slug,omitempty" validate:"omitempty,slug"`
	CategorySlug  string   `json:"category_slug,omitempty" validate:"omitempty,slug"`
	Description   string   `json:"description,omitempty"`
	StartingPrice *float64 `json:"starting_price,omitempty" validate:"omitempty,gte=0"`
	ImageURL      string   `json:"image_url,omitempty" validate:"omitempty,cdnhost,max=2048"`
	IsActive      bool     `json:"is_active"`
	SEO           *SEO     `json:"seo,omitempty"`
}

func (s *Service) SlugKey() string { return s.Slug }

func (s *Service) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Slug = NormalizeSlug(s.Slug)
	s.CitySlug = NormalizeSlug(s.CitySlug)
	s.CategorySlug = NormalizeSlug(s.CategorySlug)
	s.SEO.normalize()
}

// LocationProfile describes a locality inside a city (e.g. "boring-road" in patna).
type LocationProfile struct {
	Meta
	CitySlug string `json:"city_slug" validate:"required,slug"`
	Locality string `json:"locality" validate:"required,max=150"`
	Slug     string `json:"slug" validate:"required,slug,max=150"`
	Headline string `json:"headline,omitempty" validate:"max=200"`
	Content  string `json:"content,omitempty"`
	Pincode  string `json:"pincode,omitempty" validate:"omitempty,numeric,len=6"`
	IsActive bool   `json:"is_active"`
	SEO      *SEO   `json:"seo,omitempty"`
}

func (l *LocationProfile) SlugKey() string { return l.Slug }

func (l *LocationProfile) Normalize() {
	l.CitySlug = NormalizeSlug(l.CitySlug)
	l.Locality = strings.TrimSpace(l.Locality)
	l.Slug = NormalizeSlug(l.Slug)
	l.Headline = strings.TrimSpace(l.Headline)
	l.Pincode = strings.TrimSpace(l.Pincode)
	l.SEO.normalize()
}
