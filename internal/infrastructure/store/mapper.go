package store

import (
	"database/sql"

	"github.com/amicci/supplier-search/internal/domain"
)

// supplierColumns mirrors the SELECT list of categoryRowsQuery.
// Seller and product columns are nullable in the analytical views.
type supplierColumns struct {
	sellerID    int64
	companyName sql.NullString
	nickname    sql.NullString
	plan        sql.NullString
	variant     sql.NullString
	product     sql.NullString
	category    sql.NullString
	state       sql.NullString
	score       float64
}

func (c *supplierColumns) dest() []interface{} {
	return []interface{}{
		&c.sellerID,
		&c.companyName,
		&c.nickname,
		&c.plan,
		&c.variant,
		&c.product,
		&c.category,
		&c.state,
		&c.score,
	}
}

// toRow converts scanned columns to a domain row
func (c *supplierColumns) toRow() domain.SupplierRow {
	return domain.SupplierRow{
		SellerID:           c.sellerID,
		CompanyName:        c.companyName.String,
		Nickname:           c.nickname.String,
		Plan:               c.plan,
		Variant:            c.variant,
		Product:            c.product.String,
		Category:           c.category.String,
		State:              c.state,
		CategorySimilarity: c.score,
	}
}

// scanSupplierRows reads every row of a categoryRowsQuery result
func scanSupplierRows(rows *sql.Rows) ([]domain.SupplierRow, error) {
	defer rows.Close()

	var out []domain.SupplierRow
	for rows.Next() {
		var cols supplierColumns
		if err := rows.Scan(cols.dest()...); err != nil {
			return nil, err
		}
		out = append(out, cols.toRow())
	}
	return out, rows.Err()
}

// scanProductMatches reads every row of a bestProductsQuery result
func scanProductMatches(rows *sql.Rows) ([]domain.ProductMatch, error) {
	defer rows.Close()

	var out []domain.ProductMatch
	for rows.Next() {
		var (
			m        domain.ProductMatch
			category sql.NullString
		)
		if err := rows.Scan(&m.Produto, &category, &m.Similarity); err != nil {
			return nil, err
		}
		m.Categoria = category.String
		out = append(out, m)
	}
	return out, rows.Err()
}
