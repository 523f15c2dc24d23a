package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountingapp "github.com/billing/backend/internal/application/accounting"
	billingapp "github.com/billing/backend/internal/application/billing"
	reportapp "github.com/billing/backend/internal/application/report"
	"github.com/billing/backend/internal/infrastructure/config"
	"github.com/billing/backend/internal/infrastructure/logger"
	"github.com/billing/backend/internal/infrastructure/persistence"
	"github.com/billing/backend/internal/infrastructure/scheduler"
	"github.com/billing/backend/internal/infrastructure/telemetry"
	"github.com/billing/backend/internal/interfaces/http/handler"
	"github.com/billing/backend/internal/interfaces/http/middleware"
	"github.com/billing/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Billing Backend API
//	@version		1.0
//	@description	Seller-facing billing backend: quotes, orders, invoices and a double-entry ledger

//	@contact.name	API Support

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    "billing-backend",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Billing Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	ctx := context.Background()
	providers, err := initTelemetry(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer providers.shutdown(log)

	// With log export on, every entry goes to the collector alongside the
	// local output
	if providers.logs.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: providers.logs,
			Level:          telemetry.ParseLogLevel(cfg.Log.Level),
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracingPlugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := tracingPlugin.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to install database tracing plugin", zap.Error(err))
		}
	}

	// Repositories
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	ledgerReportRepo := persistence.NewGormLedgerReportRepository(db.DB)
	statsRepo := persistence.NewGormStatsRepository(db.DB)

	// Transaction manager shared by services that must post atomically
	txManager := persistence.NewGormTransactionManager(db.DB, log)

	// Application services
	categoryService := accountingapp.NewCategoryService(categoryRepo, ledgerRepo)
	ledgerService := accountingapp.NewLedgerService(ledgerRepo)
	postingService := accountingapp.NewPostingService(categoryRepo, ledgerRepo, log)
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, orderRepo, postingService, txManager, log)
	quoteService := billingapp.NewQuoteService(quoteRepo, orderRepo, invoiceRepo, log)
	orderService := billingapp.NewOrderService(orderRepo)
	reportService := reportapp.NewReportService(ledgerReportRepo, statsRepo)

	// Business metrics on the receivables balance
	if cfg.Telemetry.Enabled {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:               providers.meter.Meter("billing.business"),
			Logger:              log,
			ReceivablesProvider: telemetry.NewGormReceivablesMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize business metrics", zap.Error(err))
		} else {
			tenantProvider := telemetry.NewGormTenantProvider(db.DB)
			businessMetrics.StartPeriodicCollection(ctx, tenantProvider, 5*time.Minute)
			defer businessMetrics.Stop()
		}
	}

	// Quote expiry sweeper: flips SENT quotes past their expiry date to
	// EXPIRED in the background
	quoteSweeper, err := scheduler.NewQuoteExpiryScheduler(
		scheduler.DefaultQuoteExpiryConfig(),
		quoteRepo,
		telemetry.NewGormTenantProvider(db.DB),
		log,
	)
	if err != nil {
		log.Fatal("Failed to initialize quote expiry sweeper", zap.Error(err))
	}
	if err := quoteSweeper.Start(ctx); err != nil {
		log.Fatal("Failed to start quote expiry sweeper", zap.Error(err))
	}
	defer func() {
		if err := quoteSweeper.Stop(context.Background()); err != nil {
			log.Error("Error stopping quote expiry sweeper", zap.Error(err))
		}
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	installMiddleware(engine, cfg, providers.meter, log)

	engine.GET("/health", healthHandler(db, log))

	// Every API route runs under tenant context; the tenant ID comes from
	// the X-Tenant-ID header. Routes registered above (health) are exempt.
	engine.Use(middleware.TenantMiddlewareWithConfig(middleware.TenantMiddlewareConfig{
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Required: true,
		Logger:   log,
	}))

	registerRoutes(engine, apiHandlers{
		category: handler.NewCategoryHandler(categoryService),
		ledger:   handler.NewLedgerHandler(ledgerService, postingService),
		invoice:  handler.NewInvoiceHandler(invoiceService),
		quote:    handler.NewQuoteHandler(quoteService),
		order:    handler.NewOrderHandler(orderService),
		report:   handler.NewReportHandler(reportService),
	})

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// telemetryProviders bundles the three OTEL pipelines so main can shut
// them down as one unit.
type telemetryProviders struct {
	tracer *telemetry.TracerProvider
	meter  *telemetry.MeterProvider
	logs   *telemetry.LoggerProvider
}

func initTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*telemetryProviders, error) {
	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	meter, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	return &telemetryProviders{tracer: tracer, meter: meter, logs: logs}, nil
}

func (p *telemetryProviders) shutdown(log *zap.Logger) {
	ctx := context.Background()
	if err := p.logs.Shutdown(ctx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
	if err := p.meter.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := p.tracer.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
}

// installMiddleware applies the global stack in order: request ID,
// recovery, request logging, tracing and metrics, security headers,
// CORS, body limit, then rate limiting.
func installMiddleware(engine *gin.Engine, cfg *config.Config, meterProvider *telemetry.MeterProvider, log *zap.Logger) {
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.TracingAttributeInjector())
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
	}

	engine.Use(middleware.Secure())

	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
}

type apiHandlers struct {
	category *handler.CategoryHandler
	ledger   *handler.LedgerHandler
	invoice  *handler.InvoiceHandler
	quote    *handler.QuoteHandler
	order    *handler.OrderHandler
	report   *handler.ReportHandler
}

// registerRoutes mounts every domain group under /api/v1.
func registerRoutes(engine *gin.Engine, h apiHandlers) {
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Accounting domain (categories, ledger entries, manual postings)
	accountingRoutes := router.NewDomainGroup("accounting", "/accounting")
	accountingRoutes.POST("/categories", h.category.Create)
	accountingRoutes.GET("/categories", h.category.List)
	accountingRoutes.GET("/categories/:id", h.category.GetByID)
	accountingRoutes.PUT("/categories/:id", h.category.Update)
	accountingRoutes.GET("/entries", h.ledger.ListEntries)
	accountingRoutes.POST("/expenses", h.ledger.PostExpense)
	accountingRoutes.POST("/adjustments", h.ledger.PostAdjustment)

	// Billing domain (quotes, orders, invoices)
	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.POST("/quotes", h.quote.Create)
	billingRoutes.GET("/quotes", h.quote.List)
	billingRoutes.GET("/quotes/:id", h.quote.GetByID)
	billingRoutes.POST("/quotes/:id/send", h.quote.Send)
	billingRoutes.POST("/quotes/:id/accept", h.quote.Accept)
	billingRoutes.POST("/quotes/:id/reject", h.quote.Reject)
	billingRoutes.POST("/quotes/:id/expire", h.quote.Expire)
	billingRoutes.POST("/quotes/:id/convert", h.quote.Convert)

	billingRoutes.POST("/orders", h.order.Create)
	billingRoutes.GET("/orders", h.order.List)
	billingRoutes.GET("/orders/:id", h.order.GetByID)
	billingRoutes.POST("/orders/:id/lines", h.order.AddLine)
	billingRoutes.DELETE("/orders/:id/lines/:lineId", h.order.RemoveLine)

	billingRoutes.POST("/invoices", h.invoice.Create)
	billingRoutes.GET("/invoices", h.invoice.List)
	billingRoutes.GET("/invoices/:id", h.invoice.GetByID)
	billingRoutes.POST("/invoices/:id/lines", h.invoice.AddLine)
	billingRoutes.DELETE("/invoices/:id/lines/:lineId", h.invoice.RemoveLine)
	billingRoutes.POST("/invoices/:id/issue", h.invoice.Issue)
	billingRoutes.POST("/invoices/:id/pay", h.invoice.Pay)

	// Report domain (ledger-derived reports plus document statistics)
	reportRoutes := router.NewDomainGroup("report", "/reports")
	reportRoutes.GET("/summary", h.report.GetFinancialSummary)
	reportRoutes.GET("/profit-loss", h.report.GetProfitLoss)
	reportRoutes.GET("/balance-sheet", h.report.GetBalanceSheet)
	reportRoutes.GET("/income-statement", h.report.GetIncomeStatement)
	reportRoutes.GET("/monthly-stats", h.report.GetMonthlyStats)

	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(accountingRoutes).
		Register(billingRoutes).
		Register(reportRoutes).
		Register(systemRoutes)

	r.Setup()

	// Bare ping outside the tenant-scoped groups for load balancer checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
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
