package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/amicci/supplier-search/internal/domain"
	"github.com/amicci/supplier-search/internal/infrastructure/metrics"
	"github.com/amicci/supplier-search/internal/similarity"
	"github.com/mattn/go-sqlite3"
)

// sqliteDriverName is go-sqlite3 with the similarity() SQL function registered on every connection
const sqliteDriverName = "sqlite3_supplier_search"

var registerSQLiteOnce sync.Once

func registerSQLiteDriver() {
	registerSQLiteOnce.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("similarity", similarity.Score, true)
			},
		})
	})
}

var sqliteDialect = dialect{
	input: "SELECT ? AS term",
	similarity: func(column string) string {
		return fmt.Sprintf("similarity(%s, input.term)", column)
	},
}

// sqliteSchema mirrors the analytical views the service reads
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sellers (
		id           INTEGER PRIMARY KEY,
		company_name TEXT,
		nickname     TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS plans (
		id   INTEGER PRIMARY KEY,
		name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS seller_plans (
		seller_id INTEGER NOT NULL UNIQUE REFERENCES sellers(id),
		plan_id   INTEGER NOT NULL REFERENCES plans(id)
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id   INTEGER PRIMARY KEY,
		name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          INTEGER PRIMARY KEY,
		name        TEXT,
		category_id INTEGER REFERENCES categories(id),
		seller_id   INTEGER NOT NULL REFERENCES sellers(id)
	)`,
	`CREATE TABLE IF NOT EXISTS product_variants (
		id           INTEGER PRIMARY KEY,
		variant_name TEXT,
		product_id   INTEGER NOT NULL REFERENCES products(id)
	)`,
	`CREATE TABLE IF NOT EXISTS states (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS seller_coverages (
		seller_id INTEGER NOT NULL REFERENCES sellers(id),
		state_id  INTEGER NOT NULL REFERENCES states(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_seller ON products (seller_id)`,
	`CREATE INDEX IF NOT EXISTS idx_product_variants_product ON product_variants (product_id)`,
	`CREATE INDEX IF NOT EXISTS idx_seller_coverages_seller ON seller_coverages (seller_id)`,
}

// SQLiteStore is a catalog repository backed by a SQLite database
type SQLiteStore struct {
	db *sql.DB
	runner
}

// OpenSQLite opens the SQLite database at cfg.DSN
func OpenSQLite(cfg Config) (*SQLiteStore, error) {
	registerSQLiteDriver()

	db, err := sql.Open(sqliteDriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return &SQLiteStore{db: db, runner: newRunner(cfg.QueryTimeout)}, nil
}

// Migrate creates the catalog tables if they do not exist
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite migrate: %w", err)
		}
	}
	return nil
}

// SupplierRowsByCategory implements domain.CatalogRepository
func (s *SQLiteStore) SupplierRowsByCategory(ctx context.Context, q domain.CategoryQuery) ([]domain.SupplierRow, error) {
	var out []domain.SupplierRow
	err := s.run(ctx, metrics.QueryCategory, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, sqliteDialect.categoryRowsQuery(len(q.ExcludedSellerIDs)), categoryRowsArgs(q)...)
		if err != nil {
			return err
		}
		out, err = scanSupplierRows(rows)
		return err
	})
	return out, err
}

// BestProducts implements domain.CatalogRepository
func (s *SQLiteStore) BestProducts(ctx context.Context, q domain.ProductQuery) ([]domain.ProductMatch, error) {
	var out []domain.ProductMatch
	err := s.run(ctx, metrics.QueryProduct, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, sqliteDialect.bestProductsQuery(), bestProductsArgs(q)...)
		if err != nil {
			return err
		}
		out, err = scanProductMatches(rows)
		return err
	})
	return out, err
}

// Ping implements domain.CatalogRepository
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
