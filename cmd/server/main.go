package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leaddesk/internal/audit"
	"leaddesk/internal/cache"
	"leaddesk/internal/config"
	"leaddesk/internal/db"
	"leaddesk/internal/email"
	"leaddesk/internal/jobs"
	"leaddesk/internal/leads"
	"leaddesk/internal/metrics"
	"leaddesk/internal/rules"
	"leaddesk/internal/server"
	"leaddesk/internal/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	if cfg.SeedDevData && cfg.IsDev() {
		if err := database.SeedDevLeads(ctx); err != nil {
			log.Printf("Warning: failed to seed dev leads: %v", err)
		}
	}

	// Rule table
	table, err := loadRules(cfg.RulesFile)
	if err != nil {
		log.Fatalf("Failed to load rules: %v", err)
	}
	analyzer, err := leads.New(table)
	if err != nil {
		log.Fatalf("Invalid rule table: %v", err)
	}
	log.Printf("Loaded rule table version %s", table.Version)

	notifier := email.NewNotifier(cfg)

	// Audit log
	observeAudit := metrics.NewAuditObserver(analyzer.KnownAction)
	auditStore, closeStore, err := openAuditStore(ctx, cfg, database)
	if err != nil {
		log.Fatalf("Failed to open %s audit store: %v", cfg.AuditStore, err)
	}
	defer closeStore()
	log.Printf("Audit log using %s store (cap %d)", cfg.AuditStore, cfg.AuditCap)

	auditLog := audit.New(auditStore, audit.Options{
		Cap:         cfg.AuditCap,
		MinInterval: cfg.AuditMinInterval,
		Penalty:     cfg.AuditPenalty,
		Shared:      cfg.AuditStore != config.AuditStoreMemory,
		OnAppend: func(e audit.Entry) {
			observeAudit(e)
			notifier.NotifyAnomaly(e)
		},
	})

	// Metrics
	metrics.Init(database)

	// Background jobs
	if cfg.RulesFile != "" && cfg.RulesReloadInterval > 0 {
		reloader := jobs.NewRuleReloader(cfg.RulesFile, cfg.RulesReloadInterval, analyzer, notifier.NotifyRulesReloadFailed)
		go reloader.Start(ctx)
	}

	// Server
	srv := server.New(cfg)
	srv.RegisterRoutes(database, analyzer, auditLog)

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server started on %s", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()
	if err := srv.Shutdown(); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	metrics.Wait()
	log.Println("Server exited")
}

// loadRules reads the rule table from path, or the embedded default when path is empty.
func loadRules(path string) (*rules.Table, error) {
	if path == "" {
		return rules.Default()
	}
	return rules.Load(path)
}

// openAuditStore builds the configured audit backend and returns a func that
// releases it.
func openAuditStore(ctx context.Context, cfg *config.Config, database *db.DB) (audit.Store, func(), error) {
	noop := func() {}

	switch cfg.AuditStore {
	case config.AuditStoreMemory:
		return audit.NewMemoryStore(), noop, nil

	case config.AuditStoreFile:
		return audit.NewFileStore(cfg.AuditFile), noop, nil

	case config.AuditStorePostgres:
		return db.NewAuditStore(database), noop, nil

	case config.AuditStoreRedis:
		client, err := cache.New(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx); err != nil {
			client.Close()
			return nil, nil, err
		}
		return client, func() {
			if err := client.Close(); err != nil {
				log.Printf("Warning: failed to close redis: %v", err)
			}
		}, nil

	case config.AuditStoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := store.New(connectCtx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Printf("Warning: failed to disconnect mongo: %v", err)
			}
		}, nil
	}

	return nil, nil, fmt.Errorf("unknown audit store %q", cfg.AuditStore)
}
