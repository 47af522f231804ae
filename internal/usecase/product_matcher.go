package usecase

import (
	"context"

	"github.com/amicci/supplier-search/internal/domain"
	"github.com/amicci/supplier-search/internal/similarity"
	"github.com/rs/zerolog/log"
)

// ProductMatchConfig holds configuration for the product matcher
type ProductMatchConfig struct {
	MinSimilarity      float64
	EnableDebugLogging bool
}

// ProductMatcher finds the single product name closest to a term. It is the
// fallback used to discover a category when no category name matches.
type ProductMatcher struct {
	repo               domain.CatalogRepository
	minSimilarity      float64
	enableDebugLogging bool
}

// NewProductMatcher creates a product matcher backed by repo
func NewProductMatcher(repo domain.CatalogRepository, config ProductMatchConfig) *ProductMatcher {
	threshold := config.MinSimilarity
	if threshold <= 0 {
		threshold = DefaultProductThreshold
	}

	return &ProductMatcher{
		repo:               repo,
		minSimilarity:      threshold,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// ResolveBestProduct returns the product most similar to term together with
// its category, or nil when no product scores strictly above the threshold.
func (m *ProductMatcher) ResolveBestProduct(ctx context.Context, term string) (*domain.ProductMatch, error) {
	// Normalize is idempotent, so a term the caller already lower-cased is unchanged.
	normalized := similarity.Normalize(term)

	candidates, err := m.repo.BestProducts(ctx, domain.ProductQuery{
		Term:          normalized,
		MinSimilarity: m.minSimilarity,
		Limit:         1,
	})
	if err != nil {
		return nil, err
	}

	best := m.pickBest(candidates)

	if m.enableDebugLogging {
		event := log.Debug().Str("term", normalized).Int("candidates", len(candidates))
		if best != nil {
			event = event.Str("product", best.Produto).Str("category", best.Categoria).Float64("similarity", best.Similarity)
		}
		event.Msg("product fallback")
	}

	return best, nil
}

// pickBest returns the highest scoring candidate above the threshold, with or
// without a category. Ties go to the lexically smaller product name, then
// category name.
func (m *ProductMatcher) pickBest(candidates []domain.ProductMatch) *domain.ProductMatch {
	var best *domain.ProductMatch

	for i := range candidates {
		c := candidates[i]
		if !similarity.Above(c.Similarity, m.minSimilarity) {
			continue
		}
		if best == nil || ranksBefore(c, *best) {
			best = &c
		}
	}

	return best
}

func ranksBefore(a, b domain.ProductMatch) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	if a.Produto != b.Produto {
		return a.Produto < b.Produto
	}
	return a.Categoria < b.Categoria
}
