package domain

import (
	"encoding/json"
	"strings"
)

// Business is a listed local business. Attributes holds admin-defined fields and is
// checked against the JSON Schema registered for KindBusiness.
type Business struct {
	Meta
	Name       string          `json:"name" validate:"required,max=150"`
	Slug       string          `json:"slug" validate:"required,slug,max=150"`
	CitySlug   string          `json:"city_slug,omitempty" validate:"omitempty,slug"`
	Phone      string          `json:"phone,omitempty" validate:"omitempty,e164|numeric,max=16"`
	Email      string          `json:"email,omitempty" validate:"omitempty,email"`
	Address    string          `json:"address,omitempty" validate:"max=300"`
	LogoURL    string          `json:"logo_url,omitempty" validate:"omitempty,cdnhost,max=2048"`
	IsActive   bool            `json:"is_active"`
	Verified   bool            `json:"verified"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

func (b *Business) SlugKey() string { return b.Slug }

func (b *Business) Normalize() {
	b.Name = strings.TrimSpace(b.Name)
	b.Slug = NormalizeSlug(b.Slug)
	b.CitySlug = NormalizeSlug(b.CitySlug)
	b.Phone = strings.TrimSpace(b.Phone)
	b.Email = strings.ToLower(strings.TrimSpace(b.Email))
	b.Address = strings.TrimSpace(b.Address)
}

// AttributeDocument exposes the free-form attributes for schema validation.
func (b *Business) AttributeDocument() json.RawMessage { return b.Attributes }
