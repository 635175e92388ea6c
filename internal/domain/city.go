package domain

import "strings"

// City is a storefront city page; its slug is the top-level route (e.g. /patna).
type City struct {
	Meta
	Name         string `json:"name" validate:"required,max=100"`
	Slug         string `json:"slug" validate:"required,slug,max=100"`
	State        string `json:"state,omitempty" validate:"max=100"`
	HeroImageURL string `json:"hero_image_url,omitempty" validate:"omitempty,cdnhost,max=2048"`
	IsActive     bool   `json:"is_active"`
	SEO          *SEO   `json:"seo,omitempty"`
}

func (c *City) SlugKey() string { return c.Slug }

func (c *City) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = NormalizeSlug(c.Slug)
	c.State = strings.TrimSpace(c.State)
	c.SEO.normalize()
}
