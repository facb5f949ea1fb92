// Package main is the entry point for the bancaflow API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bancaflow/internal/config"
	"bancaflow/internal/domain/auth"
	"bancaflow/internal/domain/catalog"
	"bancaflow/internal/domain/documents/delivery"
	"bancaflow/internal/domain/documents/returncall"
	"bancaflow/internal/domain/reports"
	"bancaflow/internal/domain/sales"
	"bancaflow/internal/domain/stock"
	"bancaflow/internal/extraction"
	"bancaflow/internal/infrastructure/blob"
	v1 "bancaflow/internal/infrastructure/http/v1"
	"bancaflow/internal/infrastructure/storage/postgres"
	"bancaflow/internal/infrastructure/storage/postgres/auth_repo"
	"bancaflow/internal/infrastructure/storage/postgres/catalog_repo"
	"bancaflow/internal/infrastructure/storage/postgres/document_repo"
	"bancaflow/internal/infrastructure/storage/postgres/report_repo"
	"bancaflow/internal/infrastructure/storage/postgres/sales_repo"
	"bancaflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting bancaflow server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Blob storage ---
	blobStore, err := blob.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsJSON)
	if err != nil {
		log.Fatalw("failed to initialize blob storage", "error", err)
	}
	defer blobStore.Close()

	// --- Repositories ---
	magazineRepo := catalog_repo.NewMagazineRepo(txManager)
	deliveryRepo := document_repo.NewDeliveryRepo(txManager)
	returnRepo := document_repo.NewReturnCallRepo(txManager)
	saleRepo := sales_repo.NewSaleRepo(txManager)
	reportRepo := report_repo.NewReportRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)
	tokenRepo := auth_repo.NewTokenRepo(txManager)

	payloadArchive, err := postgres.NewPayloadArchive(txManager)
	if err != nil {
		log.Fatalw("failed to initialize payload archive", "error", err)
	}

	// --- Extraction oracle ---
	oracle := extraction.NewHTTPOracle(cfg.ExtractionBaseURL, cfg.ExtractionAPIKey)

	// --- Domain services ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))
	authService := auth.NewService(userRepo, tokenRepo, jwtService, auth.DefaultServiceConfig())

	matcher := catalog.NewMatcher(catalog.MatcherConfig{})
	catalogService := catalog.NewService(magazineRepo, nil, blobStore)
	ledger := stock.NewService(magazineRepo, deliveryRepo, returnRepo)

	deliveryService := delivery.NewService(
		deliveryRepo, magazineRepo, matcher, ledger,
		oracle, blobStore, payloadArchive, txManager,
	)
	returnService := returncall.NewService(
		returnRepo, magazineRepo, matcher, ledger,
		oracle, blobStore, payloadArchive, txManager,
	)
	salesService := sales.NewService(saleRepo, magazineRepo, ledger)
	reportService := reports.NewService(reportRepo)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:              pool.Unwrap(),
		Logger:            log,
		JWTValidator:      jwtService,
		AuthService:       authService,
		CatalogService:    catalogService,
		DeliveryService:   deliveryService,
		ReturnCallService: returnService,
		SalesService:      salesService,
		ReportService:     reportService,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
