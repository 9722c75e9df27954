package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	billingapp "github.com/hotelpms/backend/internal/application/billing"
	guestapp "github.com/hotelpms/backend/internal/application/guest"
	predictionapp "github.com/hotelpms/backend/internal/application/prediction"
	reservationapp "github.com/hotelpms/backend/internal/application/reservation"
	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/hotelpms/backend/internal/infrastructure/auth"
	"github.com/hotelpms/backend/internal/infrastructure/cache"
	"github.com/hotelpms/backend/internal/infrastructure/config"
	"github.com/hotelpms/backend/internal/infrastructure/inference"
	"github.com/hotelpms/backend/internal/infrastructure/logger"
	"github.com/hotelpms/backend/internal/infrastructure/persistence"
	"github.com/hotelpms/backend/internal/infrastructure/scheduler"
	"github.com/hotelpms/backend/internal/interfaces/http/handler"
	"github.com/hotelpms/backend/internal/interfaces/http/middleware"
	"github.com/hotelpms/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Hotel PMS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with a zap-backed gorm logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Idempotency store: Redis when reachable, in-memory fallback for
	// single-instance development setups
	var idempotencyStore shared.IdempotencyStore
	redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		if cfg.App.Env == "production" {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		idempotencyStore = redisStore
		log.Info("Redis connected successfully")
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Repositories
	billingRepo := persistence.NewGormBillingRecordRepository(db.DB)
	reservationRepo := persistence.NewGormReservationRepository(db.DB)
	guestRepo := persistence.NewGormGuestRepository(db.DB)

	// Application services
	billingService := billingapp.NewBillingService(billingRepo, idempotencyStore, billingapp.BillingServiceConfig{
		PaymentTermsDays: cfg.Billing.PaymentTermsDays,
		IdempotencyTTL:   cfg.Billing.IdempotencyTTL,
	}, log)

	reservationService := reservationapp.NewReservationService(
		reservationRepo,
		guestRepo,
		billingService,
		reservationapp.ReservationServiceConfig{
			TaxRate:    decimal.NewFromFloat(cfg.Billing.TaxRate),
			ServiceFee: decimal.NewFromFloat(cfg.Billing.ServiceFee),
		},
		log,
	)

	guestService := guestapp.NewGuestService(guestRepo, log)

	inferenceClient := inference.NewClient(cfg.Inference)
	predictionService := predictionapp.NewPredictionService(inferenceClient, cfg.Inference.Enabled, log)

	// Overdue sweep scheduler
	var sweepScheduler *scheduler.OverdueSweepScheduler
	if cfg.Billing.SweepEnabled {
		sweepScheduler = scheduler.NewOverdueSweepScheduler(scheduler.OverdueSweepConfig{
			Enabled:       true,
			SweepHour:     cfg.Billing.SweepHour,
			CheckInterval: cfg.Billing.SweepCheckInterval,
		}, billingService, log)
		if err := sweepScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start overdue sweep scheduler", zap.Error(err))
		}
		defer func() {
			if err := sweepScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping overdue sweep scheduler", zap.Error(err))
			}
		}()
	}

	// JWT service
	jwtService := auth.NewJWTService(cfg.JWT)

	// Gin engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
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
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Handlers
	billingHandler := handler.NewBillingHandler(billingService)
	reservationHandler := handler.NewReservationHandler(reservationService)
	guestHandler := handler.NewGuestHandler(guestService)
	predictionHandler := handler.NewPredictionHandler(predictionService)
	var systemHandler *handler.SystemHandler
	if sweepScheduler != nil {
		systemHandler = handler.NewSystemHandler(sweepScheduler)
	} else {
		systemHandler = handler.NewSystemHandler(nil)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
	}))
	r.Use(middleware.TenantMiddlewareWithConfig(middleware.TenantMiddlewareConfig{
		HeaderEnabled: true,
		JWTEnabled:    true,
		SkipPaths: []string{
			"/api/v1/system",
			"/api/v1/predictions/health",
		},
		Required: true,
	}))

	// Billing ledger
	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.GET("/records", billingHandler.ListBillings)
	billingRoutes.POST("/records", billingHandler.CreateBilling)
	billingRoutes.GET("/records/:id", billingHandler.GetBilling)
	billingRoutes.POST("/records/:id/payments", billingHandler.ApplyPayment)
	billingRoutes.POST("/records/:id/overdue", billingHandler.MarkOverdue)
	billingRoutes.GET("/summary", billingHandler.GetBillingSummary)
	r.Register(billingRoutes)

	// Reservations
	reservationRoutes := router.NewDomainGroup("reservation", "/reservations")
	reservationRoutes.GET("", reservationHandler.ListReservations)
	reservationRoutes.POST("", reservationHandler.CreateReservation)
	reservationRoutes.GET("/confirmation/:number", reservationHandler.GetReservationByConfirmation)
	reservationRoutes.GET("/:id", reservationHandler.GetReservation)
	reservationRoutes.POST("/:id/check-in", reservationHandler.CheckIn)
	reservationRoutes.POST("/:id/check-out", reservationHandler.CheckOut)
	reservationRoutes.POST("/:id/cancel", reservationHandler.Cancel)
	r.Register(reservationRoutes)

	// Guest profiles
	guestRoutes := router.NewDomainGroup("guest", "/guests")
	guestRoutes.GET("", guestHandler.ListGuests)
	guestRoutes.POST("", guestHandler.CreateGuest)
	guestRoutes.GET("/:id", guestHandler.GetGuest)
	guestRoutes.PATCH("/:id", guestHandler.UpdateGuest)
	guestRoutes.DELETE("/:id", guestHandler.DeleteGuest)
	r.Register(guestRoutes)

	// Prediction proxy
	predictionRoutes := router.NewDomainGroup("prediction", "/predictions")
	predictionRoutes.GET("/health", predictionHandler.Health)
	predictionRoutes.POST("/demand", predictionHandler.ForecastDemand)
	predictionRoutes.POST("/pricing", predictionHandler.RecommendPricing)
	predictionRoutes.POST("/churn", predictionHandler.ScoreChurn)
	predictionRoutes.POST("/fraud", predictionHandler.ScoreFraud)
	r.Register(predictionRoutes)

	// System
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/sweep", systemHandler.GetSweepStatus)
	r.Register(systemRoutes)

	r.Setup()

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

// healthHandler reports liveness including database connectivity
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
