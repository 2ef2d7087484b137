package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/auth"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/config"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/logger"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/handler"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by NewEngine. System and Auth are optional.
type Handlers struct {
	Health     *handler.HealthHandler
	Products   *handler.ProductHandler
	Suppliers  *handler.SupplierHandler
	Lots       *handler.LotHandler
	Sales      *handler.SaleHandler
	Waste      *handler.WasteHandler
	Promotions *handler.PromotionHandler
	Margins    *handler.MarginHandler
	Planning   *handler.PlanningHandler
	Audit      *handler.AuditHandler
	System     *handler.SystemHandler
	Auth       *handler.AuthHandler
}

// Options configures the engine built by NewEngine
type Options struct {
	ServiceName string
	HTTP        config.HTTPConfig
	// JWT enables bearer token auth. When nil the X-Actor header names the operator.
	JWT *middleware.JWTMiddlewareConfig
	// Tracing wraps every request in an otelgin span
	Tracing bool
	// Meter records HTTP metrics when set
	Meter metric.Meter
	// RateLimiter limits API requests per actor and client when set
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

// NewEngine builds the gin engine with the middleware chain and every route
func NewEngine(opts Options, h Handlers) (*gin.Engine, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(opts.Logger),
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{ServiceName: opts.ServiceName, Enabled: opts.Tracing}),
		middleware.SpanAttributes(),
		logger.GinMiddleware(opts.Logger),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(opts.HTTP)),
		middleware.BodyLimit(opts.HTTP.MaxBodySize),
	)
	if opts.Meter != nil {
		metricsMW, err := middleware.HTTPMetrics(opts.Meter)
		if err != nil {
			return nil, err
		}
		engine.Use(metricsMW)
	}

	engine.GET("/health", h.Health.Health)

	var apiMW []gin.HandlerFunc
	if opts.JWT != nil {
		apiMW = append(apiMW, middleware.JWTAuthMiddlewareWithConfig(*opts.JWT))
	} else {
		apiMW = append(apiMW, middleware.ActorFromHeader())
	}
	if opts.RateLimiter != nil {
		apiMW = append(apiMW, middleware.RateLimit(opts.RateLimiter))
	}

	// staffOnly guards catalog administration and margin policy. Without
	// token auth there are no roles to check.
	staffOnly := func(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
		if opts.JWT == nil {
			return handlers
		}
		return append([]gin.HandlerFunc{middleware.RequireRole(auth.RoleStaff)}, handlers...)
	}

	r := NewRouter(engine, WithAPIMiddleware(apiMW...))
	r.Register(NewDomainGroup("health", "/health").GET("", h.Health.Health))
	r.Register(NewDomainGroup("products", "/products").
		POST("", staffOnly(h.Products.Create)...).
		GET("", h.Products.List).
		GET("/:id", h.Products.Get).
		PUT("/:id", staffOnly(h.Products.Update)...).
		DELETE("/:id", staffOnly(h.Products.Delete)...))
	r.Register(NewDomainGroup("suppliers", "/suppliers").
		POST("", staffOnly(h.Suppliers.Create)...).
		GET("", h.Suppliers.List).
		GET("/:id", h.Suppliers.Get).
		PUT("/:id", staffOnly(h.Suppliers.Update)...).
		DELETE("/:id", staffOnly(h.Suppliers.Delete)...))
	r.Register(NewDomainGroup("purchases", "/purchases").
		POST("", h.Lots.ReceivePurchase))
	r.Register(NewDomainGroup("lots", "/lots").
		GET("", h.Lots.List).
		GET("/expiring", h.Lots.Expiring).
		GET("/:id", h.Lots.Get).
		POST("/:id/expire", h.Lots.Expire).
		POST("/:id/discard", h.Lots.Discard).
		DELETE("/:id", staffOnly(h.Lots.Purge)...))
	r.Register(NewDomainGroup("sales", "/sales").
		POST("", h.Sales.Register).
		GET("", h.Sales.List).
		GET("/:id", h.Sales.Get).
		PUT("/:id/payment-method", h.Sales.ChangePaymentMethod))
	r.Register(NewDomainGroup("waste", "/waste").
		POST("", h.Waste.Register).
		GET("", h.Waste.List))
	r.Register(NewDomainGroup("promotions", "/promotions").
		POST("", staffOnly(h.Promotions.Create)...).
		GET("", h.Promotions.List).
		POST("/validate", h.Promotions.Validate).
		DELETE("/:id", staffOnly(h.Promotions.Delete)...))
	r.Register(NewDomainGroup("margins", "/margins").
		GET("", h.Margins.ListRules).
		GET("/below-minimum", h.Margins.BelowMinimum).
		GET("/products/:id", h.Margins.ResolveForProduct).
		PUT("/global", staffOnly(h.Margins.SetGlobal)...).
		PUT("/categories/:name", staffOnly(h.Margins.UpsertCategory)...).
		DELETE("/categories/:name", staffOnly(h.Margins.DeleteCategory)...).
		PUT("/products/:id", staffOnly(h.Margins.UpsertProduct)...).
		DELETE("/products/:id", staffOnly(h.Margins.DeleteProduct)...))
	r.Register(NewDomainGroup("planning", "/planning").
		GET("/demand", h.Planning.Demand).
		GET("/reorder", h.Planning.Reorder).
		GET("/liquidation", h.Planning.Liquidation).
		GET("/kpis", h.Planning.KPIs).
		GET("/sales-periods", h.Planning.SalesPeriods))
	r.Register(NewDomainGroup("audit", "/audit").
		GET("", staffOnly(h.Audit.List)...))
	if h.System != nil {
		r.Register(NewDomainGroup("system", "/system").
			GET("/jobs", staffOnly(h.System.ListJobs)...).
			POST("/jobs/:name/run", staffOnly(h.System.RunJob)...))
	}
	if h.Auth != nil {
		r.Register(NewDomainGroup("auth", "/auth").
			GET("/me", h.Auth.WhoAmI).
			POST("/revoke", h.Auth.Revoke))
	}
	r.Setup()

	return engine, nil
}
