package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/amicci/supplier-search/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategoryMatcher(t *testing.T) {
	repo := NewMockCatalogRepository()

	t.Run("uses provided threshold", func(t *testing.T) {
		m := NewCategoryMatcher(repo, CategoryMatchConfig{MinSimilarity: 0.9})
		assert.Equal(t, 0.9, m.minSimilarity)
	})

	t.Run("uses default threshold when zero", func(t *testing.T) {
		m := NewCategoryMatcher(repo, CategoryMatchConfig{})
		assert.Equal(t, DefaultCategoryThreshold, m.minSimilarity)
	})

	t.Run("deduplicates excluded sellers", func(t *testing.T) {
		m := NewCategoryMatcher(repo, CategoryMatchConfig{ExcludedSellerIDs: []int64{25, 2, 25}})
		assert.Equal(t, []int64{25, 2}, m.excludedIDs)
		assert.True(t, m.IsExcluded(25))
		assert.False(t, m.IsExcluded(10))
	})
}

func TestResolveByCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("returns grouped records for an exact category name", func(t *testing.T) {
		repo := NewMockCatalogRepository(catalogFixture()...)
		m := NewCategoryMatcher(repo, CategoryMatchConfig{ExcludedSellerIDs: excludedSellers})

		records, err := m.ResolveByCategory(ctx, "Bebidas")
		require.NoError(t, err)

		want := []domain.SupplierRecord{
			{ID: 10, RazaoSocial: "Distribuidora Sol Ltda", Fornecedor: "Sol", Plano: ptr("Premium"), Variante: ptr("250g"), Produto: "Cafe", Categoria: "Bebidas", Estados: ptr("RJ, SP")},
			{ID: 10, RazaoSocial: "Distribuidora Sol Ltda", Fornecedor: "Sol", Plano: ptr("Premium"), Variante: ptr("1kg"), Produto: "Café Torrado", Categoria: "Bebidas", Estados: ptr("RJ, SP")},
			{ID: 10, RazaoSocial: "Distribuidora Sol Ltda", Fornecedor: "Sol", Plano: ptr("Premium"), Variante: ptr("500g"), Produto: "Café Torrado", Categoria: "Bebidas", Estados: ptr("RJ, SP")},
			{ID: 11, RazaoSocial: "Águas Claras SA", Fornecedor: "Águas Claras", Produto: "Água Mineral", Categoria: "Bebidas", Estados: ptr("MG")},
		}
		assert.Equal(t, want, records)
	})

	t.Run("passes threshold and exclusions to the store", func(t *testing.T) {
		repo := NewMockCatalogRepository(catalogFixture()...)
		m := NewCategoryMatcher(repo, CategoryMatchConfig{ExcludedSellerIDs: excludedSellers})

		_, err := m.ResolveByCategory(ctx, "Bebidas")
		require.NoError(t, err)

		require.Len(t, repo.categoryQueries, 1)
		q := repo.categoryQueries[0]
		assert.Equal(t, "Bebidas", q.Term)
		assert.Equal(t, 0.8, q.MinSimilarity)
		assert.Equal(t, excludedSellers, q.ExcludedSellerIDs)
	})

	t.Run("tolerates a misspelled category", func(t *testing.T) {
		repo := NewMockCatalogRepository(catalogFixture()...)
		m := NewCategoryMatcher(repo, CategoryMatchConfig{ExcludedSellerIDs: excludedSellers})

		records, err := m.ResolveByCategory(ctx, "bebdas")
		require.NoError(t, err)
		assert.Len(t, records, 4)
		for _, r := range records {
			assert.Equal(t, "Bebidas", r.Categoria)
		}
	})

	t.Run("returns empty without error when nothing matches", func(t *testing.T) {
		repo := NewMockCatalogRepository(catalogFixture()...)
		m := NewCategoryMatcher(repo, CategoryMatchConfig{ExcludedSellerIDs: excludedSellers})

		records, err := m.ResolveByCategory(ctx, "xyzzy123")
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("never returns excluded sellers even if the store does", func(t *testing.T) {
		repo := NewMockCatalogRepository(catalogFixture()...)
		repo.ignoreExclusions = true
		m := NewCategoryMatcher(repo, CategoryMatchConfig{ExcludedSellerIDs: excludedSellers})

		for _, term := range []string{"Cabelos", "Bebidas", "Higiene", "cabelo"} {
			records, err := m.ResolveByCategory(ctx, term)
			require.NoError(t, err)
			for _, r := range records {
				assert.NotContains(t, excludedSellers, r.ID, "term %q", term)
			}
		}
	})

	t.Run("threshold is strictly exclusive", func(t *testing.T) {
		repo := NewMockCatalogRepository()
		repo.rawRows = []domain.SupplierRow{
			{SellerID: 1, CompanyName: "A", Nickname: "A", Product: "P1", Category: "Exact", CategorySimilarity: 0.8},
			{SellerID: 2, CompanyName: "B", Nickname: "B", Product: "P2", Category: "Above", CategorySimilarity: 0.8000001},
			{SellerID: 3, CompanyName: "C", Nickname: "C", Product: "P3", Category: "Below", CategorySimilarity: 0.5},
		}
		m := NewCategoryMatcher(repo, CategoryMatchConfig{MinSimilarity: 0.8})

		records, err := m.ResolveByCategory(ctx, "anything")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Above", records[0].Categoria)
	})

	t.Run("leaves states nil when the seller covers none", func(t *testing.T) {
		repo := NewMockCatalogRepository(catalogFixture()...)
		m := NewCategoryMatcher(repo, CategoryMatchConfig{ExcludedSellerIDs: excludedSellers})

		records, err := m.ResolveByCategory(ctx, "Higiene")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Nil(t, records[0].Estados)
		assert.Equal(t, "Sabonete", records[0].Produto)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		repo := NewMockCatalogRepository(catalogFixture()...)
		repo.categoryErr = domain.ErrStoreFailure
		m := NewCategoryMatcher(repo, CategoryMatchConfig{})

		records, err := m.ResolveByCategory(ctx, "Bebidas")
		assert.True(t, errors.Is(err, domain.ErrStoreFailure))
		assert.Nil(t, records)
	})
}

func TestJoinStates(t *testing.T) {
	t.Run("sorts and deduplicates", func(t *testing.T) {
		got := joinStates(map[string]struct{}{"SP": {}, "MG": {}, "RJ": {}})
		require.NotNil(t, got)
		assert.Equal(t, "MG, RJ, SP", *got)
	})

	t.Run("nil for no states", func(t *testing.T) {
		assert.Nil(t, joinStates(map[string]struct{}{}))
	})
}

func TestCompareNullable(t *testing.T) {
	assert.Equal(t, 0, compareNullable(nil, nil))
	assert.Equal(t, -1, compareNullable(nil, ptr("a")))
	assert.Equal(t, 1, compareNullable(ptr("a"), nil))
	assert.Equal(t, -1, compareNullable(ptr("a"), ptr("b")))
}
