package usecase

import (
	"context"
	"database/sql"
	"sort"

	"github.com/amicci/supplier-search/internal/domain"
	"github.com/amicci/supplier-search/internal/similarity"
)

// MockCatalogRepository is an in-memory implementation of domain.CatalogRepository.
// It scores names with the real similarity package, the way the SQL stores do.
type MockCatalogRepository struct {
	rows []domain.SupplierRow

	// rawRows, when set, are returned verbatim by SupplierRowsByCategory
	rawRows []domain.SupplierRow
	// rawProducts, when set, are returned verbatim by BestProducts
	rawProducts []domain.ProductMatch

	ignoreExclusions bool

	categoryErr        error
	failCategoryOnCall int
	productErr         error
	pingErr            error

	categoryQueries []domain.CategoryQuery
	productQueries  []domain.ProductQuery
}

func NewMockCatalogRepository(rows ...domain.SupplierRow) *MockCatalogRepository {
	return &MockCatalogRepository{rows: rows}
}

func (m *MockCatalogRepository) SupplierRowsByCategory(ctx context.Context, query domain.CategoryQuery) ([]domain.SupplierRow, error) {
	m.categoryQueries = append(m.categoryQueries, query)
	if m.categoryErr != nil && (m.failCategoryOnCall == 0 || m.failCategoryOnCall == len(m.categoryQueries)) {
		return nil, m.categoryErr
	}
	if m.rawRows != nil {
		return m.rawRows, nil
	}

	excluded := make(map[int64]bool)
	if !m.ignoreExclusions {
		for _, id := range query.ExcludedSellerIDs {
			excluded[id] = true
		}
	}

	var out []domain.SupplierRow
	for _, row := range m.rows {
		score := similarity.Score(row.Category, query.Term)
		if score <= query.MinSimilarity || excluded[row.SellerID] {
			continue
		}
		row.CategorySimilarity = score
		out = append(out, row)
	}
	return out, nil
}

func (m *MockCatalogRepository) BestProducts(ctx context.Context, query domain.ProductQuery) ([]domain.ProductMatch, error) {
	m.productQueries = append(m.productQueries, query)
	if m.productErr != nil {
		return nil, m.productErr
	}
	if m.rawProducts != nil {
		return m.rawProducts, nil
	}

	seen := make(map[[2]string]bool)
	var out []domain.ProductMatch
	for _, row := range m.rows {
		key := [2]string{row.Product, row.Category}
		if seen[key] {
			continue
		}
		seen[key] = true

		score := similarity.Score(row.Product, query.Term)
		if score <= query.MinSimilarity {
			continue
		}
		out = append(out, domain.ProductMatch{Produto: row.Product, Categoria: row.Category, Similarity: score})
	}

	sort.Slice(out, func(i, j int) bool { return ranksBefore(out[i], out[j]) })
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (m *MockCatalogRepository) Ping(ctx context.Context) error {
	return m.pingErr
}

func str(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func ptr(s string) *string {
	return &s
}

// catalogFixture mirrors the store integration fixture:
//   - Bebidas: seller 10 (two products, several variants, SP+RJ) and seller 11 (no plan, no variant, MG)
//   - Cabelos: only seller 25, which is on the exclusion list
//   - Higiene: seller 12
func catalogFixture() []domain.SupplierRow {
	return []domain.SupplierRow{
		{SellerID: 10, CompanyName: "Distribuidora Sol Ltda", Nickname: "Sol", Plan: str("Premium"), Variant: str("500g"), Product: "Café Torrado", Category: "Bebidas", State: str("SP")},
		{SellerID: 10, CompanyName: "Distribuidora Sol Ltda", Nickname: "Sol", Plan: str("Premium"), Variant: str("500g"), Product: "Café Torrado", Category: "Bebidas", State: str("RJ")},
		{SellerID: 10, CompanyName: "Distribuidora Sol Ltda", Nickname: "Sol", Plan: str("Premium"), Variant: str("1kg"), Product: "Café Torrado", Category: "Bebidas", State: str("SP")},
		{SellerID: 10, CompanyName: "Distribuidora Sol Ltda", Nickname: "Sol", Plan: str("Premium"), Variant: str("1kg"), Product: "Café Torrado", Category: "Bebidas", State: str("RJ")},
		{SellerID: 10, CompanyName: "Distribuidora Sol Ltda", Nickname: "Sol", Plan: str("Premium"), Variant: str("250g"), Product: "Cafe", Category: "Bebidas", State: str("SP")},
		{SellerID: 10, CompanyName: "Distribuidora Sol Ltda", Nickname: "Sol", Plan: str("Premium"), Variant: str("250g"), Product: "Cafe", Category: "Bebidas", State: str("RJ")},
		{SellerID: 11, CompanyName: "Águas Claras SA", Nickname: "Águas Claras", Product: "Água Mineral", Category: "Bebidas", State: str("MG")},
		{SellerID: 25, CompanyName: "Excluída Ltda", Nickname: "Excluída", Plan: str("Basic"), Variant: str("300ml"), Product: "Shampoo Neutro", Category: "Cabelos", State: str("SP")},
		{SellerID: 12, CompanyName: "Limpeza Total ME", Nickname: "Limpeza Total", Plan: str("Basic"), Variant: str("90g"), Product: "Sabonete", Category: "Higiene"},
	}
}

// excludedSellers is the production exclusion list
var excludedSellers = []int64{25, 1761, 2, 2078, 2070, 4382}
