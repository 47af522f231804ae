package domain

import "errors"

var (
	// ErrNoSuppliersFound is returned when neither category nor product fallback yields suppliers
	ErrNoSuppliersFound = errors.New("no suppliers found")

	// ErrInvalidTerm is returned when the search term is blank
	ErrInvalidTerm = errors.New("invalid search term")

	// ErrStoreFailure is returned when a catalog store query fails
	ErrStoreFailure = errors.New("catalog store query failed")
)
