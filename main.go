package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AnTengye/docsign/config"
	"github.com/AnTengye/docsign/handler"
	"github.com/AnTengye/docsign/middleware"
	"github.com/AnTengye/docsign/pkg/database"
	"github.com/AnTengye/docsign/pkg/logger"
	"github.com/AnTengye/docsign/repository"
	"github.com/AnTengye/docsign/service"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := os.Getenv("DOCSIGN_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	ctx := context.Background()

	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		slog.Error("failed to initialize database", "type", cfg.Database.Type, "error", err)
		os.Exit(1)
	}

	templates := repository.NewTemplateRepository(db)
	documents := repository.NewDocumentRepository(db)
	audits := repository.NewAuditRepository(db)
	authorities := repository.NewAuthorityRepository(db)

	// Initialize services
	minioSvc, err := service.NewMinioService(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize MINIO service", "error", err)
		os.Exit(1)
	}

	// Ensure bucket exists
	if err := minioSvc.EnsureBucket(ctx); err != nil {
		slog.Error("failed to ensure MINIO bucket", "error", err)
		os.Exit(1)
	}

	if a := cfg.Signing.Authority; a.TypedName != "" {
		if err := service.RegisterAuthority(ctx, authorities, a.TypedName, a.Title, a.ImageObject); err != nil {
			slog.Error("failed to register signing authority", "error", err)
			os.Exit(1)
		}
	}
	authority, err := service.LoadAuthority(ctx, authorities, minioSvc)
	if err != nil {
		slog.Error("failed to load signing authority", "error", err)
		os.Exit(1)
	}

	idempotency := newIdempotencyStore(ctx, cfg)

	generator := service.NewGenerator(service.GeneratorDeps{
		Templates:        templates,
		Documents:        documents,
		Audits:           audits,
		Renderer:         service.NewRendererService(&cfg.Renderer),
		Storage:          minioSvc,
		Idempotency:      idempotency,
		Authority:        authority,
		MinContentLength: cfg.Signing.MinContentLength,
		TokenTTL:         time.Duration(cfg.Signing.TokenTTLDays) * 24 * time.Hour,
	})

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := newRouter(cfg, handlers{
		auth:      handler.NewAuthHandler(cfg),
		documents: handler.NewDocumentHandler(generator, documents, minioSvc),
		signing:   handler.NewSigningHandler(documents, minioSvc),
		templates: handler.NewTemplateHandler(templates),
	})

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: time.Duration(cfg.Renderer.TimeoutSeconds+30) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	slog.Info("server exited gracefully")
}

// newIdempotencyStore uses Redis when an address is configured and
// reachable, process memory otherwise.
func newIdempotencyStore(ctx context.Context, cfg *config.Config) service.IdempotencyStore {
	ttl := time.Duration(cfg.Redis.IdempotencyTTLHours) * time.Hour
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := client.Ping(pingCtx).Err()
		if err == nil {
			slog.Info("idempotency keys stored in redis", "addr", cfg.Redis.Addr)
			return service.NewRedisIdempotencyStore(client, ttl)
		}
		slog.Warn("redis unreachable, keeping idempotency keys in memory", "addr", cfg.Redis.Addr, "error", err)
		client.Close()
	}
	return service.NewMemoryIdempotencyStore(cfg.Signing.IdempotencyMaxEntries, ttl)
}

type handlers struct {
	auth      *handler.AuthHandler
	documents *handler.DocumentHandler
	signing   *handler.SigningHandler
	templates *handler.TemplateHandler
}

func newRouter(cfg *config.Config, h handlers) *gin.Engine {
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())     // Request ID for tracing
	router.Use(middleware.Recovery())      // Panic recovery
	router.Use(middleware.RequestLogger()) // Access logging
	router.Use(corsMiddleware())           // CORS
	router.Use(cacheMiddleware())          // Cache control

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	limit := middleware.RateLimit(cfg.Server.RateLimit, time.Minute)

	// Public routes
	api := router.Group("/api", limit)
	{
		api.POST("/auth/login", h.auth.Login)
		api.GET("/signing/:token", h.signing.Lookup)
	}

	// Protected routes, limited per user after authentication
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth), limit)
	{
		protected.GET("/auth/me", h.auth.GetCurrentUser)

		protected.GET("/templates", h.templates.List)
		protected.POST("/templates", h.templates.Create)
		protected.GET("/templates/:ref", h.templates.Get)
		protected.PUT("/templates/:ref/fields", h.templates.ReplaceFields)

		protected.POST("/documents/generate", h.documents.Generate)
		protected.GET("/documents/:id", h.documents.Get)
		protected.GET("/documents/:id/file", h.documents.File)
		protected.GET("/packets/:packet_id/documents", h.documents.ListPacket)
	}

	return router
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID, Idempotency-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Idempotent-Replayed, Retry-After")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// cacheMiddleware disables caching of API responses
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}
		c.Next()
	}
}
