package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/amicci/supplier-search/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	serviceName = "supplier-search"

	msgAlive         = "API de fornecedores conectada"
	msgNotFound      = "Nenhum fornecedor encontrado."
	msgInvalidTerm   = "Termo de busca inválido"
	msgSearchFailure = "Erro ao buscar fornecedores"
	msgNotConfigured = "Busca de fornecedores não configurada"

	healthTimeout = 3 * time.Second
)

// SupplierSearcher runs the two-stage supplier lookup
type SupplierSearcher interface {
	Search(ctx context.Context, term string) ([]domain.SupplierRecord, error)
}

// Pinger reports whether the catalog store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searcher SupplierSearcher
	store    Pinger
}

// NewHandler creates a new HTTP handler. Either dependency may be nil; the
// affected endpoints then report that they are not configured.
func NewHandler(searcher SupplierSearcher, store Pinger) *Handler {
	return &Handler{
		searcher: searcher,
		store:    store,
	}
}

// Root is the plain-text liveness acknowledgement
func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, msgAlive)
}

// HealthCheck returns the health status of the API and its catalog store
func (h *Handler) HealthCheck(c *gin.Context) {
	storeStatus := "connected"
	if h.store == nil {
		storeStatus = "not configured"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("store ping failed")
			storeStatus = "error"
		}
	}

	status := http.StatusOK
	health := "healthy"
	if storeStatus != "connected" {
		status = http.StatusServiceUnavailable
		health = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":  health,
		"service": serviceName,
		"store":   storeStatus,
	})
}

// SearchSuppliersByCategory resolves the path term to supplier records
func (h *Handler) SearchSuppliersByCategory(c *gin.Context) {
	if h.searcher == nil {
		c.String(http.StatusServiceUnavailable, msgNotConfigured)
		return
	}

	term := c.Param("term")

	records, err := h.searcher.Search(c.Request.Context(), term)
	if err != nil {
		h.handleSearchError(c, term, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// handleSearchError maps search errors to HTTP responses. Detail stays in the log.
func (h *Handler) handleSearchError(c *gin.Context, term string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidTerm):
		c.String(http.StatusBadRequest, msgInvalidTerm)
	case errors.Is(err, domain.ErrNoSuppliersFound):
		log.Debug().Str("term", term).Msg("no suppliers found")
		c.String(http.StatusNotFound, msgNotFound)
	default:
		log.Error().
			Err(err).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("term", term).
			Msg("supplier search failed")
		c.String(http.StatusInternalServerError, msgSearchFailure)
	}
}
