package domain

import (
	"strings"
	"time"
)

// Applicability values for TermsAndConditions.
const (
	ApplicableToProduct = "product"
	ApplicableToService = "service"
	ApplicableToAll     = "all"
)

// Status values for TermsAndConditions.
const (
	TermsStatusActive   = "active"
	TermsStatusInactive = "inactive"
)

// TermsAndConditions is a versioned legal text. Versions are labels only; older
// versions are separate documents, not a chain.
type TermsAndConditions struct {
	Meta
	Title         string    `json:"title" validate:"required,max=200"`
	Content       string    `json:"content" validate:"required"`
	ApplicableTo  string    `json:"applicable_to" validate:"required,oneof=product service all"`
	Version       string    `json:"version" validate:"required,max=20"`
	EffectiveFrom time.Time `json:"effective_from" validate:"required"`
	Status        string    `json:"status" validate:"required,oneof=active inactive"`
}

func (t *TermsAndConditions) SlugKey() string { return "" }

func (t *TermsAndConditions) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	t.Version = strings.TrimSpace(t.Version)
	t.ApplicableTo = strings.ToLower(strings.TrimSpace(t.ApplicableTo))
	if t.ApplicableTo == "" {
		t.ApplicableTo = ApplicableToAll
	}
	t.Status = strings.ToLower(strings.TrimSpace(t.Status))
	if t.Status == "" {
		t.Status = TermsStatusActive
	}
}
