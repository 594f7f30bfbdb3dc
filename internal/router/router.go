package router

import (
	"time"

	"retailpos/internal/config"
	"retailpos/internal/handler"
	"retailpos/internal/middleware"
	"retailpos/internal/model"
	"retailpos/internal/repository"
	"retailpos/internal/service"
	"retailpos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	clientRepo := repository.NewClientRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	returnRepo := repository.NewSaleReturnRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo, categoryRepo, movementRepo, rdb)
	categorySvc := service.NewCategoryService(categoryRepo)
	branchSvc := service.NewBranchService(branchRepo)
	clientSvc := service.NewClientService(clientRepo)
	saleSvc := service.NewSaleService(saleRepo, productRepo, branchRepo, clientRepo, movementRepo, dispatcher)
	returnSvc := service.NewReturnService(saleRepo, returnRepo, productRepo, movementRepo, dispatcher)
	reportSvc := service.NewReportService(db)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	categoriesH := handler.NewCategoriesHandler(categorySvc)
	branchesH := handler.NewBranchesHandler(branchSvc)
	clientsH := handler.NewClientsHandler(clientSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	returnsH := handler.NewReturnsHandler(returnSvc)
	reportsH := handler.NewReportsHandler(reportSvc)
	priceH := handler.NewPriceCheckHandler(productRepo, rdb, time.Duration(cfg.PriceCacheTTL)*time.Second)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check — no auth required
	r.GET("/v1/price/:barcode", priceH.GetByBarcode)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole(model.RoleCashier, model.RoleSupervisor, model.RoleAdmin)
	supervisorUp := middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	v1 := r.Group("/v1", jwtMW)
	{
		// Sales — any authenticated role can sell and read
		v1.POST("/sales", anyRole, salesH.Register)
		v1.GET("/sales", anyRole, salesH.List)
		v1.GET("/sales/:id", anyRole, salesH.Get)

		// Returns — supervisor or admin
		v1.POST("/sales/:id/returns", supervisorUp, returnsH.Record)
		v1.GET("/sales/:id/returns", anyRole, returnsH.ListBySale)

		// Products — all roles can read (catalog sync), admin writes
		v1.GET("/products", anyRole, productsH.List)
		v1.GET("/products/low-stock", supervisorUp, productsH.LowStock)
		v1.GET("/products/:id", anyRole, productsH.Get)
		v1.POST("/products/:id/stock", supervisorUp, productsH.AdjustStock)
		prods := v1.Group("/products", adminOnly)
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Deactivate)
			prods.POST("/:id/reactivate", productsH.Reactivate)
		}

		// Categories — all roles read, admin writes
		v1.GET("/categories", anyRole, categoriesH.List)
		categories := v1.Group("/categories", adminOnly)
		{
			categories.POST("", categoriesH.Create)
			categories.PUT("/:id", categoriesH.Update)
			categories.DELETE("/:id", categoriesH.Deactivate)
		}

		// Branches — all roles read, admin writes
		v1.GET("/branches", anyRole, branchesH.List)
		branches := v1.Group("/branches", adminOnly)
		{
			branches.POST("", branchesH.Create)
			branches.PUT("/:id", branchesH.Update)
			branches.DELETE("/:id", branchesH.Deactivate)
		}

		// Clients — all roles read and create (walk-in registration)
		v1.GET("/clients", anyRole, clientsH.List)
		v1.GET("/clients/:id", anyRole, clientsH.Get)
		v1.POST("/clients", anyRole, clientsH.Create)
		v1.PUT("/clients/:id", supervisorUp, clientsH.Update)
		v1.DELETE("/clients/:id", adminOnly, clientsH.Deactivate)

		// Reports — supervisor or admin
		reports := v1.Group("/reports", supervisorUp)
		{
			reports.GET("/daily-sales", reportsH.DailySales)
			reports.GET("/sales.csv", reportsH.ExportSales)
		}

		// Users — admin only
		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.POST("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
