// Package seed loads starter documents from a YAML file into the document store.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"local-marketplace/internal/domain"
	"local-marketplace/internal/schema"
	"local-marketplace/internal/store"
)

// Sections in the order they are applied; referenced slugs come first.
var sections = []struct {
	key  string
	kind domain.Kind
}{
	{"cities", domain.KindCity},
	{"categories", domain.KindProductCategory},
	{"tags", domain.KindProductTag},
	{"products", domain.KindProduct},
	{"businesses", domain.KindBusiness},
	{"services", domain.KindService},
	{"location_profiles", domain.KindLocationProfile},
	{"terms", domain.KindTerms},
}

var dateOnly = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Item is one validated document waiting to be created.
type Item struct {
	Kind domain.Kind
	Doc  domain.Document
}

// Plan is a validated seed file.
type Plan struct {
	Items []Item
}

// Load decodes a seed file and validates every document. Nothing is returned unless the whole file is valid.
func Load(r io.Reader, registry *schema.Registry) (*Plan, error) {
	var raw map[string][]map[string]any
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return &Plan{}, nil
		}
		return nil, fmt.Errorf("seed: decode yaml: %w", err)
	}

	known := make(map[string]bool, len(sections))
	for _, s := range sections {
		known[s.key] = true
	}
	for key := range raw {
		if !known[key] {
			return nil, fmt.Errorf("seed: unknown section %q", key)
		}
	}

	plan := &Plan{}
	var errs []error
	for _, s := range sections {
		entity := schema.MustLookup(s.kind)
		for i, fields := range raw[s.key] {
			doc, err := decodeDocument(entity, fields)
			if err == nil {
				err = registry.Validate(s.kind, doc)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("%s[%d]: %w", s.key, i, err))
				continue
			}
			plan.Items = append(plan.Items, Item{Kind: s.kind, Doc: doc})
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("seed: invalid documents: %w", errors.Join(errs...))
	}
	return plan, nil
}

// ReadFields decodes a single YAML (or JSON) mapping.
func ReadFields(r io.Reader) (map[string]any, error) {
	fields := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("seed: decode yaml: %w", err)
	}
	return fields, nil
}

// ReadDocument decodes a single YAML mapping into a new document of entity's kind.
// The document is not validated.
func ReadDocument(r io.Reader, entity schema.Entity) (domain.Document, error) {
	fields, err := ReadFields(r)
	if err != nil {
		return nil, err
	}
	return DecodeFields(entity, fields)
}

// DecodeFields moves decoded YAML fields onto the entity's JSON shape. Unknown fields are rejected
// and date-only effective_from values are read as midnight UTC.
func DecodeFields(entity schema.Entity, fields map[string]any) (domain.Document, error) {
	doc, err := decodeDocument(entity, fields)
	if err != nil {
		return nil, fmt.Errorf("seed: %s: %w", entity.Kind, err)
	}
	return doc, nil
}

func decodeDocument(entity schema.Entity, fields map[string]any) (domain.Document, error) {
	if v, ok := fields["effective_from"].(string); ok && dateOnly.MatchString(v) {
		fields["effective_from"] = v + "T00:00:00Z"
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	doc := entity.New()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return doc, nil
}

// CreateFunc stores one document of a known kind.
type CreateFunc func(ctx context.Context, doc domain.Document) error

// Targets routes each kind to its repository.
type Targets map[domain.Kind]CreateFunc

// Creator is the write side of a store.Repository.
type Creator[T any] interface {
	Create(ctx context.Context, doc *T) (*T, error)
}

// Register routes kind to repo.
func Register[T any, PT store.DocPtr[T]](t Targets, kind domain.Kind, repo Creator[T]) {
	t[kind] = func(ctx context.Context, doc domain.Document) error {
		typed, ok := doc.(PT)
		if !ok {
			return fmt.Errorf("seed: %s document has type %T", kind, doc)
		}
		_, err := repo.Create(ctx, (*T)(typed))
		return err
	}
}

// Report counts what Apply did per kind.
type Report struct {
	Created map[domain.Kind]int
	Skipped map[domain.Kind]int
}

// Apply creates every planned document. Documents whose slug already exists are skipped,
// so a seed file can be applied repeatedly.
func (p *Plan) Apply(ctx context.Context, targets Targets, logger *zap.Logger) (Report, error) {
	report := Report{Created: map[domain.Kind]int{}, Skipped: map[domain.Kind]int{}}
	for _, item := range p.Items {
		create, ok := targets[item.Kind]
		if !ok {
			return report, fmt.Errorf("seed: no repository registered for %s", item.Kind)
		}
		err := create(ctx, item.Doc)
		switch {
		case err == nil:
			report.Created[item.Kind]++
		case errors.Is(err, store.ErrSlugExists):
			report.Skipped[item.Kind]++
			logger.Debug("seed document exists, skipping", zap.String("kind", string(item.Kind)), zap.String("slug", item.Doc.SlugKey()))
		default:
			return report, fmt.Errorf("seed: create %s %q: %w", item.Kind, item.Doc.SlugKey(), err)
		}
	}
	return report, nil
}
