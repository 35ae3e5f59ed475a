package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrExpressionNotFound is returned by ExpressionCache.Get when no
// expression has been registered under the given name.
var ErrExpressionNotFound = errors.New("expression not found")

// ExpressionCache persists named FHIRPath expressions so a host can
// register one once (e.g. a FHIR SearchParameter expression) and have
// every later evaluator request resolve it by name instead of resending
// the source text, the same durable-lookaside role the teacher's pgx
// pool plays for tenant and consent records elsewhere in the platform.
type ExpressionCache struct {
	pool *pgxpool.Pool
}

// NewExpressionCache wraps an already-connected pool. Callers must run
// EnsureSchema once (typically at startup) before Save/Get.
func NewExpressionCache(pool *pgxpool.Pool) *ExpressionCache {
	return &ExpressionCache{pool: pool}
}

// EnsureSchema creates the backing table if it does not already exist.
// There is no migration runner for this single-table demo store, unlike
// the teacher's Atlas-driven domain schema.
func (c *ExpressionCache) EnsureSchema(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS fhirpath_expressions (
			name        TEXT PRIMARY KEY,
			expression  TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure fhirpath_expressions schema: %w", err)
	}
	return nil
}

// Save upserts a named expression's source text.
func (c *ExpressionCache) Save(ctx context.Context, name, expression string) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO fhirpath_expressions (name, expression, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET expression = EXCLUDED.expression`,
		name, expression, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save expression %q: %w", name, err)
	}
	return nil
}

// Get resolves a registered expression's source text by name.
func (c *ExpressionCache) Get(ctx context.Context, name string) (string, error) {
	var expression string
	err := c.pool.QueryRow(ctx, `SELECT expression FROM fhirpath_expressions WHERE name = $1`, name).Scan(&expression)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrExpressionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get expression %q: %w", name, err)
	}
	return expression, nil
}
