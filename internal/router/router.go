package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/kerem-gursoy/uup/docs"
	"github.com/kerem-gursoy/uup/internal/config"
	"github.com/kerem-gursoy/uup/internal/extraction"
	"github.com/kerem-gursoy/uup/internal/handler"
	"github.com/kerem-gursoy/uup/internal/infra"
	"github.com/kerem-gursoy/uup/internal/middleware"
	"github.com/kerem-gursoy/uup/internal/repository"
	"github.com/kerem-gursoy/uup/internal/service"
)

// Deps are the process-level collaborators built in main. Redis, Breaker and
// Thumbnails may be nil.
type Deps struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Files      *infra.FileStore
	Extractor  extraction.Extractor
	Breaker    *infra.CircuitBreaker
	Thumbnails service.ThumbnailQueue
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, deps Deps) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	db := deps.DB

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	productRepo := repository.NewProductRepository(db)
	priceRepo := repository.NewPriceHistoryRepository(db)
	stockRepo := repository.NewStockMovementRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	cache := service.NewSummaryCache(deps.Redis, cfg.SummaryCacheTTL)
	matcher, err := service.NewProductMatcher(cfg.ProductMatcher, productRepo)
	if err != nil {
		return nil, err
	}

	authSvc := service.NewAuthService(userRepo, cfg)
	supplierSvc := service.NewSupplierService(supplierRepo)
	productSvc := service.NewProductService(productRepo, supplierRepo, priceRepo, stockRepo, cache)
	inventorySvc := service.NewInventoryService(productRepo, priceRepo, stockRepo, cache)
	invoiceSvc := service.NewInvoiceService(service.InvoiceDeps{
		Invoices:     invoiceRepo,
		Suppliers:    supplierRepo,
		Products:     productRepo,
		Prices:       priceRepo,
		Stock:        stockRepo,
		Files:        deps.Files,
		Extractor:    deps.Extractor,
		Matcher:      matcher,
		Locker:       infra.NewLocker(deps.Redis),
		Thumbnails:   deps.Thumbnails,
		Cache:        cache,
		ApplyLockTTL: cfg.ApplyLockTTL,
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc, cfg.CookieSecure)
	suppliersH := handler.NewSuppliersHandler(supplierSvc)
	productsH := handler.NewProductsHandler(productSvc, inventorySvc)
	invoicesH := handler.NewInvoicesHandler(invoiceSvc, cfg.MaxUploadBytes)
	reportsH := handler.NewReportsHandler(inventorySvc)
	jobsH := handler.NewJobsHandler(deps.Redis)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, deps.Redis, deps.Breaker))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jwtMW := middleware.JWTAuth(cfg.JWTSecret)

	auth := r.Group("/auth")
	{
		auth.POST("/register", middleware.LoginRateLimiter(), authH.Register)
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/logout", authH.Logout)
		auth.GET("/me", jwtMW, authH.Me)
	}

	// Protected routes
	api := r.Group("", jwtMW)
	{
		sup := api.Group("/suppliers")
		{
			sup.POST("", suppliersH.Create)
			sup.GET("", suppliersH.List)
			sup.GET("/:id", suppliersH.Get)
			sup.PUT("/:id", suppliersH.Update)
			sup.DELETE("/:id", suppliersH.Delete)
		}

		prod := api.Group("/products")
		{
			prod.POST("", productsH.Create)
			prod.GET("", productsH.List)
			prod.GET("/by-barcode/:barcode", productsH.GetByBarcode)
			prod.GET("/:id", productsH.Get)
			prod.PUT("/:id", productsH.Update)
			prod.DELETE("/:id", productsH.Delete)
			prod.POST("/:id/set-price", productsH.SetPrice)
			prod.GET("/:id/price-history", productsH.PriceHistory)
			prod.POST("/:id/adjust-stock", productsH.AdjustStock)
			prod.GET("/:id/summary", productsH.Summary)
		}

		inv := api.Group("/invoices")
		{
			inv.POST("/upload", invoicesH.Upload)
			inv.GET("", invoicesH.List)
			inv.GET("/:id", invoicesH.Get)
			inv.GET("/:id/file", invoicesH.File)
			inv.GET("/:id/thumbnail", invoicesH.Thumbnail)
			inv.POST("/:id/parse", invoicesH.Parse)
			inv.POST("/:id/apply", invoicesH.Apply)
		}

		rep := api.Group("/reports")
		{
			rep.GET("/low-stock", reportsH.LowStock)
			rep.GET("/stock.xlsx", reportsH.StockExport)
		}

		api.GET("/jobs/dead-letters", jobsH.DeadLetters)
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, nil
}
