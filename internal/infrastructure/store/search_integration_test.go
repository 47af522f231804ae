package store

import (
	"context"
	"errors"
	"testing"

	"github.com/amicci/supplier-search/internal/domain"
	"github.com/amicci/supplier-search/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntegrationService(t *testing.T) *usecase.SupplierService {
	t.Helper()
	return usecase.NewSupplierService(newTestStore(t), usecase.SupplierServiceConfig{
		CategoryThreshold: 0.8,
		ProductThreshold:  0.7,
		ExcludedSellerIDs: testExcluded,
	})
}

func TestSearchAgainstSQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("exact category name", func(t *testing.T) {
		svc := newIntegrationService(t)

		records, err := svc.Search(ctx, "Bebidas")
		require.NoError(t, err)
		require.Len(t, records, 4)

		assert.Equal(t, "Cafe", records[0].Produto)
		assert.Equal(t, "Café Torrado", records[1].Produto)
		assert.Equal(t, "1kg", *records[1].Variante)
		assert.Equal(t, "500g", *records[2].Variante)
		require.NotNil(t, records[0].Estados)
		assert.Equal(t, "RJ, SP", *records[0].Estados)
		assert.Equal(t, "Premium", *records[0].Plano)

		assert.Equal(t, int64(11), records[3].ID)
		assert.Nil(t, records[3].Plano)
		assert.Nil(t, records[3].Variante)
		assert.Equal(t, "MG", *records[3].Estados)
	})

	t.Run("product name falls back to its category", func(t *testing.T) {
		svc := newIntegrationService(t)

		records, err := svc.Search(ctx, "agua mineral")
		require.NoError(t, err)
		require.Len(t, records, 4)
		for _, r := range records {
			assert.Equal(t, "Bebidas", r.Categoria)
		}
	})

	t.Run("best product without a category is not found", func(t *testing.T) {
		svc := newIntegrationService(t)

		// "Café" (no category) scores 1 and beats the categorized "Cafe"
		_, err := svc.Search(ctx, "café")
		assert.True(t, errors.Is(err, domain.ErrNoSuppliersFound))
	})

	t.Run("unrelated term", func(t *testing.T) {
		svc := newIntegrationService(t)

		_, err := svc.Search(ctx, "xyzzy123")
		assert.True(t, errors.Is(err, domain.ErrNoSuppliersFound))
	})

	t.Run("category with only excluded sellers", func(t *testing.T) {
		svc := newIntegrationService(t)

		_, err := svc.Search(ctx, "Cabelos")
		assert.True(t, errors.Is(err, domain.ErrNoSuppliersFound))
	})

	t.Run("repeated searches are identical", func(t *testing.T) {
		svc := newIntegrationService(t)

		first, err := svc.Search(ctx, "bebdas")
		require.NoError(t, err)
		second, err := svc.Search(ctx, "bebdas")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
