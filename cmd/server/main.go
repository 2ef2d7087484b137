package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	appaudit "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/audit"
	catalogapp "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/catalog"
	inventoryapp "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/inventory"
	planningapp "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/planning"
	pricingapp "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/pricing"
	tradeapp "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/trade"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/planning"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/pricing"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/auth"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/cache"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/config"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/logger"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/migration"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/persistence"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/scheduler"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/telemetry"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/handler"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/middleware"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry comes first so the database plugin and HTTP metrics get a real meter
	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    serviceVersion,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = telemetry.Bridge(log, telemetry.NewZapCore(tp, logger.ParseLevel(cfg.Log.Level)))

	log.Info("Starting smart inventory",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbPlugin, err := telemetry.NewDBInstrumentation(tp.Meter("psi.db"), telemetry.DBConfig{
		TraceEnabled:    cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to create database instrumentation", zap.Error(err))
	}
	if err := db.DB.Use(dbPlugin); err != nil {
		log.Fatal("Failed to install database instrumentation", zap.Error(err))
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := runMigrations(sqlDB, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	lotRepo := persistence.NewGormLotRepository(db.DB)
	wasteRepo := persistence.NewGormWasteRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	settingRepo := persistence.NewGormSettingRepository(db.DB)
	ruleRepo := persistence.NewGormMarginRuleRepository(db.DB)
	promoRepo := persistence.NewGormPromoRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	recorder := appaudit.NewRecorder(auditRepo, log)
	resolver := pricingapp.NewLoggingResolver(pricing.NewMarginResolver(ruleRepo, settingRepo), log)

	// Application services
	productService := catalogapp.NewProductService(productRepo, supplierRepo, lotRepo, recorder)
	supplierService := catalogapp.NewSupplierService(supplierRepo, recorder)
	lotService := inventoryapp.NewLotService(lotRepo, productRepo, settingRepo, txScope, recorder, log)
	wasteService := inventoryapp.NewWasteService(wasteRepo, lotRepo, productRepo, recorder)
	saleService := tradeapp.NewSaleService(productRepo, promoRepo, saleRepo, txScope, recorder, log)
	saleService.SetRejectOnShortfall(cfg.Engine.RejectOnShortfall)
	marginService := pricingapp.NewMarginService(ruleRepo, settingRepo, productRepo, resolver, recorder)
	promotionService := pricingapp.NewPromotionService(promoRepo, productRepo, resolver, recorder, log)
	advisoryService := planningapp.NewAdvisoryService(productRepo, lotRepo, saleRepo, wasteRepo, settingRepo,
		planningapp.Config{
			DemandWindowDays:      cfg.Engine.DemandWindowDays,
			LiquidationWindowDays: cfg.Engine.LiquidationWindowDays,
			Reorder: planning.ReorderParams{
				LeadTimeDays: cfg.Engine.LeadTimeDays,
				CoverDays:    cfg.Engine.CoverDays,
				ServiceZ:     cfg.Engine.ZScore,
			},
		}, log)
	auditService := appaudit.NewService(auditRepo)

	// Idempotency for sale registration
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()
	saleService.SetIdempotencyStore(idempotencyStore, cfg.Engine.IdempotencyTTL)

	// Business metrics
	inventoryMetrics, err := telemetry.NewInventoryMetrics(telemetry.InventoryMetricsConfig{
		Meter:         tp.Meter("psi.inventory"),
		Logger:        log,
		StockProvider: telemetry.NewGormStockMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create inventory metrics", zap.Error(err))
	}
	inventoryMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval, 0)
	defer inventoryMetrics.Stop()
	lotService.SetMetrics(inventoryMetrics)
	wasteService.SetMetrics(inventoryMetrics)
	saleService.SetMetrics(inventoryMetrics)
	promotionService.SetMetrics(inventoryMetrics)

	// Background jobs
	jobs := scheduler.NewScheduler(log)
	if cfg.Engine.ExpirySweepEnabled {
		if err := jobs.Register(scheduler.NewExpirySweepJob(lotService, cfg.Engine.ExpirySweepInterval, log)); err != nil {
			log.Fatal("Failed to register expiry sweep", zap.Error(err))
		}
	}
	if err := jobs.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Authentication
	var (
		jwtCfg      *middleware.JWTMiddlewareConfig
		revocations auth.RevocationList = auth.NewInMemoryRevocationList()
	)
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + strconv.Itoa(cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			_ = client.Close()
		}()
		revocations = auth.NewRedisRevocationList(client)
	}
	if cfg.JWT.Enabled {
		c := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
		c.Revocations = revocations
		c.Logger = log
		jwtCfg = &c
	} else {
		log.Warn("Bearer tokens disabled, the actor is taken from the X-Actor header")
	}

	handlers := router.Handlers{
		Health:     handler.NewHealthHandler(sqlDB, cfg.App.Name),
		Products:   handler.NewProductHandler(productService),
		Suppliers:  handler.NewSupplierHandler(supplierService),
		Lots:       handler.NewLotHandler(lotService),
		Sales:      handler.NewSaleHandler(saleService),
		Waste:      handler.NewWasteHandler(wasteService),
		Promotions: handler.NewPromotionHandler(promotionService),
		Margins:    handler.NewMarginHandler(marginService),
		Planning:   handler.NewPlanningHandler(advisoryService),
		Audit:      handler.NewAuditHandler(auditService),
		System:     handler.NewSystemHandler(jobs),
	}
	if jwtCfg != nil {
		handlers.Auth = handler.NewAuthHandler(revocations)
	}

	engine, err := router.NewEngine(router.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		HTTP:        cfg.HTTP,
		JWT:         jwtCfg,
		Tracing:     tp.Enabled(),
		Meter:       tp.Meter("psi.http"),
		Logger:      log,
	}, handlers)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Warn("Scheduler did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func runMigrations(sqlDB *sql.DB, log *zap.Logger) error {
	m, err := migration.New(sqlDB, migration.Source{}, log)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
