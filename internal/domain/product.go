package domain

import "strings"

// Product is a catalog listing. Price is optional; a nil price renders as "on request".
type Product struct {
	Meta
	Name         string   `json:"name" validate:"required,max=255"`
	Slug         string   `json:"slug" validate:"required,slug,max=255"`
	Description  string   `json:"description,omitempty"`
	CategorySlug string   `json:"category_slug,omitempty" validate:"omitempty,slug"`
	TagSlugs     []string `json:"tag_slugs,omitempty" validate:"omitempty,max=30,dive,slug"`
	Price        *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	ImageURL     string   `json:"image_url,omitempty" validate:"omitempty,cdnhost,max=2048"`
	IsActive     bool     `json:"is_active"`
	SEO          *SEO     `json:"seo,omitempty"`
}

func (p *Product) SlugKey() string { return p.Slug }

func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Slug = NormalizeSlug(p.Slug)
	p.CategorySlug = NormalizeSlug(p.CategorySlug)
	for i, s := range p.TagSlugs {
		p.TagSlugs[i] = NormalizeSlug(s)
	}
	p.SEO.normalize()
}

// ProductCategory groups products; categories are flat.
type ProductCategory struct {
	Meta
	Name        string `json:"name" validate:"required,max=255"`
	Slug        string `json:"slug" validate:"required,slug,max=255"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty" validate:"omitempty,cdnhost,max=2048"`
	IsActive    bool   `json:"is_active"`
	SEO         *SEO   `json:"seo,omitempty"`
}

func (c *ProductCategory) SlugKey() string { return c.Slug }

func (c *ProductCategory) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = NormalizeSlug(c.Slug)
	c.SEO.normalize()
}

// ProductTag is a free label attached to products by slug.
type ProductTag struct {
	Meta
	Name     string `json:"name" validate:"required,max=100"`
	Slug     string `json:"slug" validate:"required,slug,max=100"`
	IsActive bool   `json:"is_active"`
	SEO      *SEO   `json:"seo,omitempty"`
}

func (t *ProductTag) SlugKey() string { return t.Slug }

func (t *ProductTag) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Slug = NormalizeSlug(t.Slug)
	t.SEO.normalize()
}
