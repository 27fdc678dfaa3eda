package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/i-vertix/assethistory/internal/admin"
	"github.com/i-vertix/assethistory/internal/auth"
	"github.com/i-vertix/assethistory/internal/backfill"
	"github.com/i-vertix/assethistory/internal/capture"
	"github.com/i-vertix/assethistory/internal/config"
	"github.com/i-vertix/assethistory/internal/db"
	"github.com/i-vertix/assethistory/internal/export"
	"github.com/i-vertix/assethistory/internal/lifecycle"
	"github.com/i-vertix/assethistory/internal/middleware"
	"github.com/i-vertix/assethistory/internal/query"
	"github.com/i-vertix/assethistory/internal/refloader"
	"github.com/i-vertix/assethistory/internal/repository"
	"github.com/i-vertix/assethistory/internal/typeregistry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Monitored type definitions come from configuration; the host owns
	// their persistence.
	registry := typeregistry.New()
	for _, tc := range cfg.Types {
		def := typeregistry.Definition{
			Name:             tc.Name,
			Table:            tc.Table,
			IDColumn:         tc.IDColumn,
			NameColumn:       tc.NameColumn,
			AssigneeColumn:   tc.AssigneeColumn,
			SoftDeleteColumn: tc.SoftDeleteColumn,
			Dynamic:          tc.Dynamic,
		}
		if err := registry.Register(def); err != nil {
			log.Fatalf("Invalid type definition %q: %v", tc.Name, err)
		}
		if tc.Monitored {
			if err := registry.Enable(tc.Name); err != nil {
				log.Fatalf("Failed to enable monitoring for %q: %v", tc.Name, err)
			}
		}
	}

	intervalRepo := repository.NewIntervalRepository(conn.Pool)
	hostSource := repository.NewHostObjectSource(conn.Pool, registry)
	resolver := refloader.NewResolver(hostSource)

	captureEngine := capture.NewEngine(intervalRepo, registry)
	importer := backfill.NewImporter(hostSource, intervalRepo)
	reconciler := lifecycle.NewReconciler(intervalRepo)

	// The host's access-control decision function plugs in here; standalone
	// deployments gate access upstream.
	var authorizer auth.Authorizer = auth.AllowAll{}

	queryService := query.NewService(intervalRepo, resolver, authorizer)
	exportService := export.NewService(queryService)
	adminService := admin.NewService(registry, importer, captureEngine, reconciler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	wrap := func(h http.Handler) http.Handler {
		return middleware.LoggingMiddleware(
			middleware.CallerMiddleware(
				middleware.DataLoaderMiddleware(hostSource)(h),
			),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/history/", wrap(query.NewHTTPHandler(queryService, cfg.History.ListLimit)))
	mux.Handle("/export/", wrap(export.NewHTTPHandler(exportService)))
	adminHandler := wrap(admin.NewHTTPHandler(adminService))
	mux.Handle("/monitoring/", adminHandler)
	mux.Handle("/events/", adminHandler)
	mux.Handle("/objects/", adminHandler)
	mux.Handle("/subjects/", adminHandler)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting asset history server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
