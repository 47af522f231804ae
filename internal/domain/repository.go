package domain

import "context"

// CatalogRepository defines the read-only queries the supplier search needs
// from the catalog store (sellers, products, variants, categories, plans, coverage).
type CatalogRepository interface {
	// SupplierRowsByCategory returns the flat supplier rows of every category
	// whose similarity to the term is above the query's minimum.
	SupplierRowsByCategory(ctx context.Context, query CategoryQuery) ([]SupplierRow, error)

	// BestProducts returns categorized products similar to the term, most
	// similar first, ties broken by product name then category name.
	BestProducts(ctx context.Context, query ProductQuery) ([]ProductMatch, error)

	// Ping checks that the store is reachable
	Ping(ctx context.Context) error
}
