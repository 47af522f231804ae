// Package store implements domain.CatalogRepository on top of SQL databases.
// Similarity is computed inside the database so only candidate rows travel
// back, and every user-supplied value is sent as a bound parameter.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amicci/supplier-search/internal/domain"
	"github.com/amicci/supplier-search/internal/infrastructure/metrics"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const defaultQueryTimeout = 10 * time.Second

// Config holds catalog store configuration
type Config struct {
	Driver       string
	DSN          string
	QueryTimeout time.Duration
	MaxOpenConns int
	AutoMigrate  bool
}

// Store is a catalog repository that owns a database connection
type Store interface {
	domain.CatalogRepository
	Close() error
}

// Open connects to the catalog store selected by cfg.Driver
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite:
		s, err := OpenSQLite(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := s.Migrate(ctx); err != nil {
				s.Close()
				return nil, err
			}
		}
		return s, nil
	case DriverPostgres:
		return OpenPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// dialect holds the SQL fragments that differ between databases
type dialect struct {
	// input binds the search term once so the similarity expression can refer to it as input.term
	input string
	// similarity returns an expression scoring column against input.term
	similarity func(column string) string
	// collate is appended to text ORDER BY keys
	collate string
}

// categoryRowsQuery builds the supplier rows query. Arguments, in order:
// term, min similarity, then one per excluded seller id.
func (d dialect) categoryRowsQuery(excluded int) string {
	var b strings.Builder

	fmt.Fprintf(&b, `WITH input AS (%s),
category_names AS (
	SELECT DISTINCT c.name AS name
	FROM products p
	JOIN categories c ON p.category_id = c.id
	WHERE c.name IS NOT NULL
),
matched AS (
	SELECT n.name AS name, %s AS score
	FROM category_names n
	CROSS JOIN input
)
SELECT
	s.id,
	s.company_name,
	s.nickname,
	pl.name,
	v.variant_name,
	p.name,
	c.name,
	st.name,
	m.score
FROM sellers s
JOIN products p ON p.seller_id = s.id
JOIN categories c ON p.category_id = c.id
JOIN matched m ON m.name = c.name
LEFT JOIN product_variants v ON v.product_id = p.id
LEFT JOIN seller_plans sp ON sp.seller_id = s.id
LEFT JOIN plans pl ON pl.id = sp.plan_id
LEFT JOIN seller_coverages sc ON sc.seller_id = s.id
LEFT JOIN states st ON st.id = sc.state_id
WHERE m.score > ?`, d.input, d.similarity("n.name"))

	if excluded > 0 {
		fmt.Fprintf(&b, "\n\tAND s.id NOT IN (%s)", placeholders(excluded))
	}

	return b.String()
}

// bestProductsQuery builds the product fallback query. Arguments, in order:
// term, min similarity, limit. Products without a category are still ranked;
// their category column comes back NULL.
func (d dialect) bestProductsQuery() string {
	return fmt.Sprintf(`WITH input AS (%s),
scored AS (
	SELECT p.name AS product, c.name AS category, %s AS score
	FROM products p
	LEFT JOIN categories c ON p.category_id = c.id
	CROSS JOIN input
	WHERE p.name IS NOT NULL
)
SELECT product, category, score
FROM scored
WHERE score > ?
ORDER BY score DESC, product%s ASC, category%s ASC
LIMIT ?`, d.input, d.similarity("p.name"), d.collate, d.collate)
}

func categoryRowsArgs(q domain.CategoryQuery) []interface{} {
	args := make([]interface{}, 0, 2+len(q.ExcludedSellerIDs))
	args = append(args, q.Term, q.MinSimilarity)
	for _, id := range q.ExcludedSellerIDs {
		args = append(args, id)
	}
	return args
}

func bestProductsArgs(q domain.ProductQuery) []interface{} {
	limit := q.Limit
	if limit <= 0 {
		limit = 1
	}
	return []interface{}{q.Term, q.MinSimilarity, limit}
}

// placeholders returns n comma-separated bind markers
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// runner bounds and instruments store round-trips
type runner struct {
	timeout time.Duration
}

func newRunner(timeout time.Duration) runner {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return runner{timeout: timeout}
}

// run executes fn under the query timeout, records its latency, and wraps any
// failure in domain.ErrStoreFailure.
func (r runner) run(ctx context.Context, query string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	metrics.ObserveStoreQuery(query, time.Since(start), err)

	if err != nil {
		return fmt.Errorf("%w: %s query: %w", domain.ErrStoreFailure, query, err)
	}
	return nil
}
