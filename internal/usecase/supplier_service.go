package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amicci/supplier-search/internal/domain"
	"github.com/amicci/supplier-search/internal/infrastructure/metrics"
	"github.com/rs/zerolog/log"
)

// SupplierServiceConfig holds configuration for the supplier service
type SupplierServiceConfig struct {
	CategoryThreshold  float64
	ProductThreshold   float64
	ExcludedSellerIDs  []int64
	EnableDebugLogging bool
}

// SupplierService looks up suppliers for a free-text category or product name
type SupplierService struct {
	categories *CategoryMatcher
	products   *ProductMatcher
}

// NewSupplierService creates a supplier service with dependencies
func NewSupplierService(repo domain.CatalogRepository, config SupplierServiceConfig) *SupplierService {
	return &SupplierService{
		categories: NewCategoryMatcher(repo, CategoryMatchConfig{
			MinSimilarity:      config.CategoryThreshold,
			ExcludedSellerIDs:  config.ExcludedSellerIDs,
			EnableDebugLogging: config.EnableDebugLogging,
		}),
		products: NewProductMatcher(repo, ProductMatchConfig{
			MinSimilarity:      config.ProductThreshold,
			EnableDebugLogging: config.EnableDebugLogging,
		}),
	}
}

// Search resolves term to supplier records.
// Flow: match categories -> if empty, match best product -> match its category.
// Returns ErrNoSuppliersFound when both stages come back empty. Any store
// error aborts the search without partial results.
func (s *SupplierService) Search(ctx context.Context, term string) ([]domain.SupplierRecord, error) {
	start := time.Now()
	defer func() { metrics.ObserveSearchDuration(time.Since(start)) }()

	if strings.TrimSpace(term) == "" {
		metrics.IncSearch(metrics.OutcomeInvalid)
		return nil, domain.ErrInvalidTerm
	}

	records, err := s.categories.ResolveByCategory(ctx, term)
	if err != nil {
		metrics.IncSearch(metrics.OutcomeError)
		return nil, fmt.Errorf("category match for %q: %w", term, err)
	}
	if len(records) > 0 {
		metrics.IncSearch(metrics.OutcomeCategory)
		return records, nil
	}

	product, err := s.products.ResolveBestProduct(ctx, term)
	if err != nil {
		metrics.IncSearch(metrics.OutcomeError)
		return nil, fmt.Errorf("product fallback for %q: %w", term, err)
	}
	if product == nil {
		return s.notFound(term)
	}
	if !product.HasCategory() {
		log.Debug().Str("term", term).Str("product", product.Produto).Msg("best product has no category")
		return s.notFound(term)
	}

	records, err = s.categories.ResolveByCategory(ctx, product.Categoria)
	if err != nil {
		metrics.IncSearch(metrics.OutcomeError)
		return nil, fmt.Errorf("category match for fallback %q: %w", product.Categoria, err)
	}
	if len(records) == 0 {
		return s.notFound(term)
	}

	log.Debug().
		Str("term", term).
		Str("product", product.Produto).
		Str("category", product.Categoria).
		Int("records", len(records)).
		Msg("suppliers found through product fallback")

	metrics.IncSearch(metrics.OutcomeFallback)
	return records, nil
}

func (s *SupplierService) notFound(term string) ([]domain.SupplierRecord, error) {
	log.Debug().Str("term", term).Msg("no suppliers found")
	metrics.IncSearch(metrics.OutcomeNotFound)
	return nil, domain.ErrNoSuppliersFound
}

// IsNotFound reports whether err means the search legitimately found nothing
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNoSuppliersFound)
}
