package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"local-marketplace/internal/domain"
	"local-marketplace/internal/schema"
)

// Predefined errors for store operations
var (
	ErrNotFound   = errors.New("store: document not found")
	ErrSlugExists = errors.New("store: slug already exists")
)

const (
	pqUniqueViolation   = "23505"
	pqInvalidTextFormat = "22P02"
)

// DocPtr constrains PT to a pointer to T that behaves as a domain.Document.
type DocPtr[T any] interface {
	*T
	domain.Document
}

// DocumentStore keeps one collection of JSON documents in a Postgres table:
// id and slug are real columns (slug carries the unique constraint), the rest lives in a jsonb doc.
type DocumentStore[T any, PT DocPtr[T]] struct {
	db    *sql.DB
	table string
	newID func() string
}

// NewDocumentStore creates a store over marketplace.<table>.
func NewDocumentStore[T any, PT DocPtr[T]](db *sql.DB, table string) *DocumentStore[T, PT] {
	return &DocumentStore[T, PT]{db: db, table: table, newID: uuid.NewString}
}

func (s *DocumentStore[T, PT]) Create(ctx context.Context, doc *T) (*T, error) {
	query := fmt.Sprintf(`
		INSERT INTO marketplace.%s (id, slug, doc)
		VALUES ($1, $2, $3)
		RETURNING id, doc, created_at, updated_at;
	`, s.table)

	d := PT(doc)
	d.Base().ID = s.newID()
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("store: Create %s failed to encode document: %w", s.table, err)
	}

	created, err := s.scanOne(s.db.QueryRowContext(ctx, query, d.Base().ID, slugArg(d), payload))
	if err != nil {
		if isSlugViolation(err) {
			return nil, ErrSlugExists
		}
		return nil, fmt.Errorf("store: Create %s failed to scan row: %w", s.table, err)
	}
	return created, nil
}

func (s *DocumentStore[T, PT]) GetByID(ctx context.Context, id string) (*T, error) {
	query := fmt.Sprintf(`
		SELECT id, doc, created_at, updated_at
		FROM marketplace.%s
		WHERE id = $1;
	`, s.table)

	doc, err := s.scanOne(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isCode(err, pqInvalidTextFormat) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: GetByID %s failed to scan row: %w", s.table, err)
	}
	return doc, nil
}

func (s *DocumentStore[T, PT]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	query := fmt.Sprintf(`
		SELECT id, doc, created_at, updated_at
		FROM marketplace.%s
		WHERE slug = $1;
	`, s.table)

	doc, err := s.scanOne(s.db.QueryRowContext(ctx, query, domain.NormalizeSlug(slug)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: GetBySlug %s failed to scan row: %w", s.table, err)
	}
	return doc, nil
}

func (s *DocumentStore[T, PT]) List(ctx context.Context, params ListParams) ([]T, int, error) {
	var queryArgs []interface{}
	var whereClauses []string
	argID := 1

	if params.SearchQuery != nil && *params.SearchQuery != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("doc->>'name' ILIKE $%d", argID))
		queryArgs = append(queryArgs, "%"+*params.SearchQuery+"%")
		argID++
	}
	if params.IsActive != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("(doc->>'is_active')::boolean = $%d", argID))
		queryArgs = append(queryArgs, *params.IsActive)
		argID++
	}
	if params.CitySlug != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("doc->>'city_slug' = $%d", argID))
		queryArgs = append(queryArgs, domain.NormalizeSlug(*params.CitySlug))
		argID++
	}

	whereCondition := ""
	if len(whereClauses) > 0 {
		whereCondition = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM marketplace.%s%s", s.table, whereCondition)
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, queryArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: List %s failed to count documents: %w", s.table, err)
	}
	if totalCount == 0 {
		return []T{}, 0, nil
	}

	dataQuery := fmt.Sprintf("SELECT id, doc, created_at, updated_at FROM marketplace.%s%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		s.table, whereCondition, argID, argID+1)
	finalQueryArgs := append(queryArgs, params.Limit, params.Offset)

	rows, err := s.db.QueryContext(ctx, dataQuery, finalQueryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: List %s failed to query documents: %w", s.table, err)
	}
	defer rows.Close()

	docs := make([]T, 0, params.Limit)
	for rows.Next() {
		doc, err := s.scanOne(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("store: List %s failed to scan row: %w", s.table, err)
		}
		docs = append(docs, *doc)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: List %s iteration error: %w", s.table, err)
	}
	return docs, totalCount, nil
}

// Update replaces the whole document; there are no partial updates.
func (s *DocumentStore[T, PT]) Update(ctx context.Context, doc *T) (*T, error) {
	query := fmt.Sprintf(`
		UPDATE marketplace.%s
		SET slug = $1, doc = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
		RETURNING id, doc, created_at, updated_at;
	`, s.table)

	d := PT(doc)
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("store: Update %s failed to encode document: %w", s.table, err)
	}

	updated, err := s.scanOne(s.db.QueryRowContext(ctx, query, slugArg(d), payload, d.Base().ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isCode(err, pqInvalidTextFormat) {
			return nil, ErrNotFound
		}
		if isSlugViolation(err) {
			return nil, ErrSlugExists
		}
		return nil, fmt.Errorf("store: Update %s failed to scan row: %w", s.table, err)
	}
	return updated, nil
}

func (s *DocumentStore[T, PT]) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM marketplace.%s WHERE id = $1;`, s.table)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		if isCode(err, pqInvalidTextFormat) {
			return ErrNotFound
		}
		return fmt.Errorf("store: Delete %s failed to execute delete: %w", s.table, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: Delete %s failed to get rows affected: %w", s.table, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *DocumentStore[T, PT]) scanOne(row rowScanner) (*T, error) {
	var (
		id                   string
		raw                  []byte
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &raw, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc := new(T)
	if err := json.Unmarshal(raw, PT(doc)); err != nil {
		return nil, fmt.Errorf("decode %s document %s: %w", s.table, id, err)
	}
	m := PT(doc).Base()
	m.ID, m.CreatedAt, m.UpdatedAt = id, createdAt, updatedAt
	return doc, nil
}

// slugArg stores kinds without a slug as NULL so the unique constraint ignores them.
func slugArg(d domain.Document) sql.NullString {
	slug := d.SlugKey()
	return sql.NullString{String: slug, Valid: slug != ""}
}

func isCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

func isSlugViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return false
	}
	return strings.HasSuffix(pqErr.Constraint, "_slug_key") || strings.Contains(pqErr.Detail, "Key (slug)")
}

// PostgresStore owns the connection pool and one DocumentStore per collection.
type PostgresStore struct {
	db *sql.DB

	Cities           *DocumentStore[domain.City, *domain.City]
	Businesses       *DocumentStore[domain.Business, *domain.Business]
	Products         *DocumentStore[domain.Product, *domain.Product]
	Categories       *DocumentStore[domain.ProductCategory, *domain.ProductCategory]
	Tags             *DocumentStore[domain.ProductTag, *domain.ProductTag]
	Services         *DocumentStore[domain.Service, *domain.Service]
	LocationProfiles *DocumentStore[domain.LocationProfile, *domain.LocationProfile]
	Terms            *DocumentStore[domain.TermsAndConditions, *domain.TermsAndConditions]
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	table := func(k domain.Kind) string { return schema.MustLookup(k).Collection }
	return &PostgresStore{
		db:               db,
		Cities:           NewDocumentStore[domain.City](db, table(domain.KindCity)),
		Businesses:       NewDocumentStore[domain.Business](db, table(domain.KindBusiness)),
		Products:         NewDocumentStore[domain.Product](db, table(domain.KindProduct)),
		Categories:       NewDocumentStore[domain.ProductCategory](db, table(domain.KindProductCategory)),
		Tags:             NewDocumentStore[domain.ProductTag](db, table(domain.KindProductTag)),
		Services:         NewDocumentStore[domain.Service](db, table(domain.KindService)),
		LocationProfiles: NewDocumentStore[domain.LocationProfile](db, table(domain.KindLocationProfile)),
		Terms:            NewDocumentStore[domain.TermsAndConditions](db, table(domain.KindTerms)),
	}
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close database: %w", err)
	}
	return nil
}
