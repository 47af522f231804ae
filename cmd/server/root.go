package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/amicci/supplier-search/config"
	httpDelivery "github.com/amicci/supplier-search/internal/delivery/http"
	"github.com/amicci/supplier-search/internal/infrastructure/metrics"
	"github.com/amicci/supplier-search/internal/infrastructure/ratelimit"
	"github.com/amicci/supplier-search/internal/infrastructure/store"
	"github.com/amicci/supplier-search/internal/usecase"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

// rootCmd represents the base command; without a subcommand it serves HTTP
var rootCmd = &cobra.Command{
	Use:   "supplier-search",
	Short: "Fuzzy supplier search by category or product name",
	Long: `Supplier Search resolves a free-text category or product name to the
suppliers offering it, tolerating typos and accents.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

// searchCmd runs one search and prints the records as JSON
var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search suppliers once and print the JSON result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		configureLogging(cfg, os.Stderr)

		catalog, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer catalog.Close()

		return runSearch(cmd.Context(), cmd.OutOrStdout(), newSupplierService(cfg, catalog), args[0])
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	configureLogging(cfg, os.Stdout)

	log.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("store_driver", cfg.Store.Driver).
		Msg("starting supplier search")

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer catalog.Close()

	service := newSupplierService(cfg, catalog)

	log.Info().
		Float64("category_threshold", cfg.Matching.CategoryThreshold).
		Float64("product_threshold", cfg.Matching.ProductThreshold).
		Int("excluded_sellers", len(cfg.Matching.ExcludedSellerIDs)).
		Msg("matching configured")

	var limiter *ratelimit.Registry
	if cfg.RateLimit.PerIP > 0 {
		limiter = ratelimit.NewRegistry(cfg.RateLimit.PerIP, 0)
		defer limiter.Stop()
	}

	handler := httpDelivery.NewHandler(service, catalog)
	router := httpDelivery.SetupRouter(cfg, handler, limiter)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Store.QueryTimeout*3 + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Msgf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	catalog, err := store.Open(ctx, store.Config{
		Driver:       cfg.Store.Driver,
		DSN:          cfg.Store.DSN,
		QueryTimeout: cfg.Store.QueryTimeout,
		MaxOpenConns: cfg.Store.MaxOpenConns,
		AutoMigrate:  cfg.Store.AutoMigrate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	return catalog, nil
}

func newSupplierService(cfg *config.Config, catalog store.Store) *usecase.SupplierService {
	return usecase.NewSupplierService(catalog, usecase.SupplierServiceConfig{
		CategoryThreshold:  cfg.Matching.CategoryThreshold,
		ProductThreshold:   cfg.Matching.ProductThreshold,
		ExcludedSellerIDs:  cfg.Matching.ExcludedSellerIDs,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})
}

// runSearch prints the records for term as indented JSON
func runSearch(ctx context.Context, out io.Writer, searcher httpDelivery.SupplierSearcher, term string) error {
	records, err := searcher.Search(ctx, term)
	if err != nil {
		if usecase.IsNotFound(err) {
			return fmt.Errorf("no suppliers found for %q", term)
		}
		return fmt.Errorf("search failed: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// configureLogging sets the global zerolog logger: pretty console output in
// development, JSON elsewhere.
func configureLogging(cfg *config.Config, out io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Server.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
		return
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
