package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	app "github.com/mohammadpnp/place-ingest/internal/application/ingest"
	"github.com/mohammadpnp/place-ingest/internal/bootstrap"
	"github.com/mohammadpnp/place-ingest/internal/config"
	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/httpx"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/places"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/repository"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/search"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("create pgx pool: %v", err)
	}
	defer pool.Close()

	retryClient := httpx.New()
	placesClient := places.NewClient(retryClient, cfg.PlacesBaseURL, cfg.PlacesAPIKey)
	searchClient := search.NewClient(retryClient, cfg.SearchURL, cfg.SearchAPIKey, cfg.SearchCollection)

	jobRepo := repository.NewJobRepository(db)
	writer := repository.NewBusinessUpsertRepository(pool)
	queries := repository.NewDirectoryQueryRepository(db)

	processors := map[domain.JobType]app.Processor{
		domain.JobTypeSearchIngest:    app.NewSearchIngestProcessor(jobRepo, placesClient, writer, queries, log),
		domain.JobTypeRefresh:         app.NewRefreshProcessor(jobRepo, placesClient, writer, queries, queries, log),
		domain.JobTypeSiteAssociation: app.NewSiteAssociationProcessor(jobRepo, queries, writer, log),
		domain.JobTypeSearchSync:      app.NewSearchSyncProcessor(jobRepo, searchClient, queries, queries, log),
	}

	worker := app.NewWorker(jobRepo, processors, app.WorkerConfig{
		Workers:      cfg.Workers,
		PollInterval: cfg.PollInterval,
	}, log)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	worker.Start(workerCtx)

	server := bootstrap.NewHTTPServer(db)

	go func() {
		if err := server.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
}
