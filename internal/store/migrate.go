package store

import (
	"context"
	"database/sql"
	"fmt"

	"local-marketplace/internal/schema"
)

const createSchemaSQL = `CREATE SCHEMA IF NOT EXISTS marketplace;`

// collectionDDL creates one document table. Slugs are unique and must already be lowercase.
const collectionDDL = `
		CREATE TABLE IF NOT EXISTS marketplace.%[1]s (
			id         UUID PRIMARY KEY,
			slug       TEXT,
			doc        JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT %[1]s_slug_key UNIQUE (slug),
			CONSTRAINT %[1]s_slug_lower CHECK (slug = lower(slug))
		);
		CREATE INDEX IF NOT EXISTS %[1]s_created_at_idx ON marketplace.%[1]s (created_at DESC);
		CREATE INDEX IF NOT EXISTS %[1]s_city_slug_idx ON marketplace.%[1]s ((doc->>'city_slug'));
	`

// Migrate creates the marketplace schema and one table per registered collection.
// Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) ([]string, error) {
	if _, err := db.ExecContext(ctx, createSchemaSQL); err != nil {
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	var applied []string
	for _, e := range schema.Entities() {
		if _, err := db.ExecContext(ctx, fmt.Sprintf(collectionDDL, e.Collection)); err != nil {
			return applied, fmt.Errorf("store: migrate %s: %w", e.Collection, err)
		}
		applied = append(applied, e.Collection)
	}
	return applied, nil
}
