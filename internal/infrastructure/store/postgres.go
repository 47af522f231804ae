package store

import (
	"context"
	"fmt"

	"github.com/amicci/supplier-search/internal/domain"
	"github.com/amicci/supplier-search/internal/infrastructure/metrics"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// postgresDialect relies on the fuzzystrmatch extension for levenshtein().
// GREATEST(..., 1) makes two empty strings score 1 instead of dividing by zero.
var postgresDialect = dialect{
	input: "SELECT CAST(? AS text) AS term",
	similarity: func(column string) string {
		return fmt.Sprintf(
			"(1 - CAST(levenshtein(lower(%[1]s), lower(input.term)) AS double precision) / GREATEST(char_length(%[1]s), char_length(input.term), 1))",
			column,
		)
	},
	collate: ` COLLATE "C"`,
}

// PostgresStore is a catalog repository backed by PostgreSQL through GORM
type PostgresStore struct {
	db *gorm.DB
	runner
}

// OpenPostgres connects to PostgreSQL and checks that levenshtein() is available
func OpenPostgres(ctx context.Context, cfg Config) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(max(1, cfg.MaxOpenConns/5))
	}

	s := &PostgresStore{db: db, runner: newRunner(cfg.QueryTimeout)}

	var distance int
	if err := db.WithContext(ctx).Raw("SELECT levenshtein('kitten', 'sitting')").Scan(&distance).Error; err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("levenshtein() unavailable, run CREATE EXTENSION fuzzystrmatch: %w", err)
	}

	return s, nil
}

// SupplierRowsByCategory implements domain.CatalogRepository
func (s *PostgresStore) SupplierRowsByCategory(ctx context.Context, q domain.CategoryQuery) ([]domain.SupplierRow, error) {
	var out []domain.SupplierRow
	err := s.run(ctx, metrics.QueryCategory, func(ctx context.Context) error {
		rows, err := s.db.WithContext(ctx).
			Raw(postgresDialect.categoryRowsQuery(len(q.ExcludedSellerIDs)), categoryRowsArgs(q)...).
			Rows()
		if err != nil {
			return err
		}
		out, err = scanSupplierRows(rows)
		return err
	})
	return out, err
}

// BestProducts implements domain.CatalogRepository
func (s *PostgresStore) BestProducts(ctx context.Context, q domain.ProductQuery) ([]domain.ProductMatch, error) {
	var out []domain.ProductMatch
	err := s.run(ctx, metrics.QueryProduct, func(ctx context.Context) error {
		rows, err := s.db.WithContext(ctx).
			Raw(postgresDialect.bestProductsQuery(), bestProductsArgs(q)...).
			Rows()
		if err != nil {
			return err
		}
		out, err = scanProductMatches(rows)
		return err
	})
	return out, err
}

// Ping implements domain.CatalogRepository
func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
