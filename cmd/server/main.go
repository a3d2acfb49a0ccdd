package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appmirror "github.com/sellerproof/backend/internal/application/mirror"
	"github.com/sellerproof/backend/internal/infrastructure/cache"
	"github.com/sellerproof/backend/internal/infrastructure/config"
	"github.com/sellerproof/backend/internal/infrastructure/logger"
	"github.com/sellerproof/backend/internal/infrastructure/mercadolibre"
	"github.com/sellerproof/backend/internal/infrastructure/persistence"
	"github.com/sellerproof/backend/internal/interfaces/http/handler"
	"github.com/sellerproof/backend/internal/interfaces/http/middleware"
	"github.com/sellerproof/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.NewForEnvironment(cfg.App.Env, &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting listing mirror",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	listingRepo := persistence.NewGormListingRepository(db.DB)

	// Remote platform client and token refresher
	mlConfig := mercadolibre.NewConfig(cfg.MercadoLibre.ClientID, cfg.MercadoLibre.ClientSecret)
	mlConfig.APIBaseURL = cfg.MercadoLibre.APIBaseURL
	mlConfig.AuthURL = cfg.MercadoLibre.AuthURL
	mlConfig.Timeout = cfg.MercadoLibre.Timeout
	mlConfig.PageSize = cfg.MercadoLibre.PageSize
	mlConfig.MaxScanPages = cfg.MercadoLibre.MaxScanPages
	mlConfig.MaxOffsetPages = cfg.MercadoLibre.MaxOffsetPages
	mlConfig.DetailBatchSize = cfg.Sync.DetailBatchSize
	mlConfig.DetailConcurrency = cfg.Sync.DetailConcurrency

	platform, err := mercadolibre.NewClient(mlConfig, log)
	if err != nil {
		log.Fatal("Failed to create platform client", zap.Error(err))
	}
	tokenService := mercadolibre.NewTokenService(mlConfig, accountRepo, cfg.Sync.TokenExpiryMargin, log)

	// Stats cache is optional; reads degrade to the database when Redis
	// is unreachable.
	statsCache, err := cache.NewRedisStatsCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Redis.StatsTTL)
	if err != nil {
		log.Warn("Redis unavailable, stats caching disabled", zap.Error(err))
		statsCache = nil
	} else {
		defer func() {
			if err := statsCache.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
	}

	// Application services
	syncOpts := []appmirror.SyncServiceOption{
		appmirror.WithAccountConcurrency(cfg.Sync.AccountConcurrency),
		appmirror.WithSaveBatchSize(cfg.Sync.SaveBatchSize),
	}
	var queryCache appmirror.StatsCache
	if statsCache != nil {
		queryCache = statsCache
		syncOpts = append(syncOpts, appmirror.WithStatsInvalidator(statsCache))
	}
	syncService := appmirror.NewSyncService(accountRepo, listingRepo, platform, tokenService, log, syncOpts...)
	queryService := appmirror.NewListingQueryService(listingRepo, queryCache, log)
	accountService := appmirror.NewAccountService(accountRepo, log)

	// HTTP handlers
	syncHandler := handler.NewSyncHandler(syncService, log)
	listingHandler := handler.NewListingHandler(queryService, log)
	accountHandler := handler.NewAccountHandler(accountService, log)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, cfg.App.Env)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// API routes
	mirrorRoutes := router.NewDomainGroup("mirror", "/mirror")
	mirrorRoutes.POST("/sync", syncHandler.Sync)
	mirrorRoutes.GET("/listings", listingHandler.Browse)
	mirrorRoutes.GET("/listings/stats", listingHandler.Stats)
	mirrorRoutes.GET("/accounts", accountHandler.List)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/info", systemHandler.Info)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(mirrorRoutes).
		Register(systemRoutes).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports service and database health
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
