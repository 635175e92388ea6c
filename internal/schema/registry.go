// Package schema is the single source of validation rules for marketplace documents.
package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"local-marketplace/internal/domain"
)

// ErrValidation is wrapped by every error returned from Registry.Validate.
var ErrValidation = errors.New("schema: validation failed")

//go:embed schemas/business_attributes.json
var businessAttributesSchema []byte

// FieldError is one violated rule, keyed by the JSON path of the field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violated rule of a document.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// AttributeCarrier is implemented by documents with a free-form attributes object.
type AttributeCarrier interface {
	AttributeDocument() json.RawMessage
}

// Registry validates documents: struct rules through validator tags, free-form
// attributes through the JSON Schema registered for the document's kind.
type Registry struct {
	validate   *validator.Validate
	imageHosts map[string]struct{}
	attributes map[domain.Kind]*gojsonschema.Schema
}

// New builds a Registry. imageHosts is the allow-list used by the cdnhost rule.
func New(imageHosts []string) (*Registry, error) {
	r := &Registry{
		validate:   validator.New(),
		imageHosts: make(map[string]struct{}, len(imageHosts)),
		attributes: make(map[domain.Kind]*gojsonschema.Schema),
	}
	for _, h := range imageHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.imageHosts[h] = struct{}{}
		}
	}

	r.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := r.validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return domain.ValidSlug(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("schema: register slug rule: %w", err)
	}
	if err := r.validate.RegisterValidation("cdnhost", func(fl validator.FieldLevel) bool {
		return r.AllowedImageURL(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("schema: register cdnhost rule: %w", err)
	}

	if err := r.RegisterAttributeSchema(domain.KindBusiness, businessAttributesSchema); err != nil {
		return nil, err
	}
	return r, nil
}

// RegisterAttributeSchema installs (or replaces) the JSON Schema used for kind's attributes.
func (r *Registry) RegisterAttributeSchema(kind domain.Kind, raw []byte) error {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema: compile attribute schema for %s: %w", kind, err)
	}
	r.attributes[kind] = s
	return nil
}

// AllowedImageURL reports whether raw is an https URL on one of the allowed CDN hosts.
func (r *Registry) AllowedImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" {
		return false
	}
	_, ok := r.imageHosts[strings.ToLower(u.Hostname())]
	return ok
}

// Validate normalizes doc in place and checks it against the rules of kind.
func (r *Registry) Validate(kind domain.Kind, doc domain.Document) error {
	doc.Normalize()

	var fields []FieldError
	if err := r.validate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("schema: validate %s: %w", kind, err)
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fieldPath(fe.Namespace()), Message: ruleMessage(fe)})
		}
	}

	if carrier, ok := doc.(AttributeCarrier); ok {
		attrErrs, err := r.validateAttributes(kind, carrier.AttributeDocument())
		if err != nil {
			return err
		}
		fields = append(fields, attrErrs...)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (r *Registry) validateAttributes(kind domain.Kind, raw json.RawMessage) ([]FieldError, error) {
	s, ok := r.attributes[kind]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		// Malformed JSON never reaches here from the API, the decoder rejects it first.
		return []FieldError{{Field: "attributes", Message: err.Error()}}, nil
	}
	var out []FieldError
	for _, desc := range result.Errors() {
		field := "attributes"
		if f := desc.Field(); f != "" && f != "(root)" {
			field += "." + f
		}
		out = append(out, FieldError{Field: field, Message: desc.Description()})
	}
	return out, nil
}

// fieldPath drops the struct name from a validator namespace: "City.seo.meta_title" -> "seo.meta_title".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "slug":
		return "must be lowercase letters, digits and single dashes"
	case "cdnhost":
		return "must be an https URL on an allowed image host"
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	}
	return "failed rule " + fe.Tag()
}
