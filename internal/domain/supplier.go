package domain

import "database/sql"

// SupplierRecord is one row of the supplier search response.
// Field names follow the JSON contract consumed by the sourcing front-end.
type SupplierRecord struct {
	ID          int64   `json:"id"`
	RazaoSocial string  `json:"Razao_social"`
	Fornecedor  string  `json:"Fornecedor"`
	Plano       *string `json:"Plano"`
	Variante    *string `json:"Variante"`
	Produto     string  `json:"Produto"`
	Categoria   string  `json:"Categoria"`
	Estados     *string `json:"Estados"` // distinct covered states, comma-joined
}

// SupplierRow is a flat, ungrouped row from the catalog store.
// Plan, variant and state come from outer joins and may be NULL.
type SupplierRow struct {
	SellerID           int64
	CompanyName        string
	Nickname           string
	Plan               sql.NullString
	Variant            sql.NullString
	Product            string
	Category           string
	State              sql.NullString
	CategorySimilarity float64
}

// ProductMatch is a product whose name is similar to a search term.
// Categoria is empty when the product has no category.
type ProductMatch struct {
	Produto    string  `json:"Produto"`
	Categoria  string  `json:"Categoria"`
	Similarity float64 `json:"similarity"`
}

// HasCategory reports whether the product belongs to a category
func (p ProductMatch) HasCategory() bool {
	return p.Categoria != ""
}

// CategoryQuery asks the store for supplier rows under categories similar to Term
type CategoryQuery struct {
	Term              string
	MinSimilarity     float64 // exclusive
	ExcludedSellerIDs []int64
}

// ProductQuery asks the store for the products most similar to Term
type ProductQuery struct {
	Term          string
	MinSimilarity float64 // exclusive
	Limit         int
}
