package usecase

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/amicci/supplier-search/internal/domain"
	"github.com/amicci/supplier-search/internal/similarity"
	"github.com/rs/zerolog/log"
)

// Default thresholds for the two matching stages
const (
	DefaultCategoryThreshold = 0.8
	DefaultProductThreshold  = 0.7
)

// stateSeparator joins the covered states of a supplier record
const stateSeparator = ", "

// CategoryMatchConfig holds configuration for the category matcher
type CategoryMatchConfig struct {
	MinSimilarity      float64
	ExcludedSellerIDs  []int64
	EnableDebugLogging bool
}

// CategoryMatcher resolves a term to the suppliers selling under every
// category whose name is similar enough to it.
type CategoryMatcher struct {
	repo               domain.CatalogRepository
	minSimilarity      float64
	excludedIDs        []int64
	excluded           map[int64]struct{}
	enableDebugLogging bool
}

// NewCategoryMatcher creates a category matcher backed by repo
func NewCategoryMatcher(repo domain.CatalogRepository, config CategoryMatchConfig) *CategoryMatcher {
	threshold := config.MinSimilarity
	if threshold <= 0 {
		threshold = DefaultCategoryThreshold
	}

	excluded := make(map[int64]struct{}, len(config.ExcludedSellerIDs))
	ids := make([]int64, 0, len(config.ExcludedSellerIDs))
	for _, id := range config.ExcludedSellerIDs {
		if _, dup := excluded[id]; dup {
			continue
		}
		excluded[id] = struct{}{}
		ids = append(ids, id)
	}

	return &CategoryMatcher{
		repo:               repo,
		minSimilarity:      threshold,
		excludedIDs:        ids,
		excluded:           excluded,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// ResolveByCategory returns the grouped supplier records of all categories
// whose similarity to term is strictly above the threshold. Sellers in the
// exclusion list never appear. No match is an empty result, not an error.
func (m *CategoryMatcher) ResolveByCategory(ctx context.Context, term string) ([]domain.SupplierRecord, error) {
	rows, err := m.repo.SupplierRowsByCategory(ctx, domain.CategoryQuery{
		Term:              term,
		MinSimilarity:     m.minSimilarity,
		ExcludedSellerIDs: m.excludedIDs,
	})
	if err != nil {
		return nil, err
	}

	records := m.aggregate(rows)

	if m.enableDebugLogging {
		log.Debug().
			Str("term", term).
			Int("rows", len(rows)).
			Int("records", len(records)).
			Msg("category match")
	}

	return records, nil
}

// IsExcluded reports whether a seller is on the exclusion list
func (m *CategoryMatcher) IsExcluded(sellerID int64) bool {
	_, ok := m.excluded[sellerID]
	return ok
}

type recordKey struct {
	sellerID    int64
	companyName string
	nickname    string
	plan        sql.NullString
	variant     sql.NullString
	product     string
	category    string
}

type recordGroup struct {
	record domain.SupplierRecord
	states map[string]struct{}
}

// aggregate drops rows that fail the threshold or belong to excluded sellers,
// then groups the rest into one record per (seller, plan, variant, product,
// category), collecting the distinct states each seller covers.
func (m *CategoryMatcher) aggregate(rows []domain.SupplierRow) []domain.SupplierRecord {
	groups := make(map[recordKey]*recordGroup)
	order := make([]recordKey, 0)

	for _, row := range rows {
		if !similarity.Above(row.CategorySimilarity, m.minSimilarity) {
			continue
		}
		if m.IsExcluded(row.SellerID) {
			continue
		}

		key := recordKey{
			sellerID:    row.SellerID,
			companyName: row.CompanyName,
			nickname:    row.Nickname,
			plan:        row.Plan,
			variant:     row.Variant,
			product:     row.Product,
			category:    row.Category,
		}

		group, ok := groups[key]
		if !ok {
			group = &recordGroup{
				record: domain.SupplierRecord{
					ID:          row.SellerID,
					RazaoSocial: row.CompanyName,
					Fornecedor:  row.Nickname,
					Plano:       nullableString(row.Plan),
					Variante:    nullableString(row.Variant),
					Produto:     row.Product,
					Categoria:   row.Category,
				},
				states: make(map[string]struct{}),
			}
			groups[key] = group
			order = append(order, key)
		}

		if row.State.Valid {
			group.states[row.State.String] = struct{}{}
		}
	}

	records := make([]domain.SupplierRecord, 0, len(order))
	for _, key := range order {
		group := groups[key]
		group.record.Estados = joinStates(group.states)
		records = append(records, group.record)
	}

	sortRecords(records)
	return records
}

// joinStates returns the sorted, comma-joined state names, or nil when the seller covers none
func joinStates(states map[string]struct{}) *string {
	if len(states) == 0 {
		return nil
	}

	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	joined := strings.Join(names, stateSeparator)
	return &joined
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// sortRecords orders records by category, seller, product, variant and plan
func sortRecords(records []domain.SupplierRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Categoria != b.Categoria {
			return a.Categoria < b.Categoria
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Produto != b.Produto {
			return a.Produto < b.Produto
		}
		if c := compareNullable(a.Variante, b.Variante); c != 0 {
			return c < 0
		}
		return compareNullable(a.Plano, b.Plano) < 0
	})
}

// compareNullable orders nil before any value
func compareNullable(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return strings.Compare(*a, *b)
}
