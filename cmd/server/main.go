package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vendebot/vende/internal/api"
	"github.com/vendebot/vende/internal/meta"
	"github.com/vendebot/vende/internal/repository"
	"github.com/vendebot/vende/internal/resolver"
	"github.com/vendebot/vende/internal/service"
	"github.com/vendebot/vende/internal/storage"
	"github.com/vendebot/vende/internal/ws"
	"github.com/vendebot/vende/pkg/cache"
	"github.com/vendebot/vende/pkg/config"
	"github.com/vendebot/vende/pkg/database"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed admin user
	if err := database.SeedAdmin(db, cfg); err != nil {
		log.Printf("Warning: Failed to seed admin: %v", err)
	}

	// Initialize storage (MinIO)
	var store *storage.Storage
	if cfg.MinioEndpoint != "" {
		store, err = storage.New(storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize storage: %v (image features will be disabled)", err)
		} else {
			log.Printf("✅ MinIO storage initialized at %s", cfg.MinioEndpoint)
		}
	}

	// Initialize Redis cache
	var redisCache *cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err = cache.New(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis cache: %v (caching disabled)", err)
		} else {
			log.Printf("✅ Redis cache initialized")
		}
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Template resolution engine over the repositories
	engine := resolver.New(repos.Client, repos.Business, repos.Promotion, repos.Order)

	// Meta Graph API client
	graph := meta.NewClient(cfg.GraphAPIBaseURL, redisCache)

	// Initialize services
	services := service.NewServices(repos, engine, graph, hub, store)

	// Initialize API server
	server := api.NewServer(cfg, services, hub, store)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")

		if redisCache != nil {
			redisCache.Close()
		}

		if err := server.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	log.Printf("🚀 Vende server starting on port %s", cfg.Port)
	if err := server.Start(cfg.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
