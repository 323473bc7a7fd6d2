package router

import (
	"net/http"

	"finances-api/internal/handlers"
	"finances-api/internal/middleware"
	"finances-api/internal/repositories"
	"finances-api/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodySize = "1M"

// Dependencies are the collaborators the HTTP layer is built from
type Dependencies struct {
	Health         handlers.HealthChecker
	Owners         services.OwnerServiceInterface
	Accounts       services.AccountServiceInterface
	Categories     services.CategoryServiceInterface
	Budgets        services.BudgetServiceInterface
	Transactions   services.TransactionServiceInterface
	Reconciliation services.ReconciliationServiceInterface
	Audit          services.AuditServiceInterface
	Auth           services.AuthServiceInterface
	Tokens         services.TokenServiceInterface
	Blacklist      repositories.BlacklistedTokenRepositoryInterface

	RateLimiter  *middleware.RateLimiter
	AllowOrigins []string
	Gatherer     prometheus.Gatherer
}

// New builds the echo instance with every API route registered
func New(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit(maxBodySize))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: deps.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.TraceIDHeader},
	}))

	health := handlers.NewHealthCheckHandler(deps.Health)
	e.GET("/health", health.HealthCheck)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Blacklist)

	registerAuthRoutes(api, deps, requireAuth)
	registerOwnerRoutes(api, deps, requireAuth)
	registerLedgerRoutes(api.Group("", requireAuth), deps)
	registerAdminRoutes(api.Group("/admin", requireAuth, middleware.RequireAdmin()), deps)

	return e
}

func registerAuthRoutes(api *echo.Group, deps Dependencies, requireAuth echo.MiddlewareFunc) {
	h := handlers.NewAuthHandler(deps.Auth)

	auth := api.Group("/auth")
	if deps.RateLimiter != nil {
		auth.Use(deps.RateLimiter.Middleware())
	}
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.RefreshToken)
	auth.POST("/logout", h.Logout, requireAuth)
}

func registerOwnerRoutes(api *echo.Group, deps Dependencies, requireAuth echo.MiddlewareFunc) {
	h := handlers.NewOwnerHandler(deps.Owners)

	owners := api.Group("/owners")
	if deps.RateLimiter != nil {
		owners.POST("", h.CreateOwner, deps.RateLimiter.Middleware())
	} else {
		owners.POST("", h.CreateOwner)
	}
	owners.GET("", h.ListOwners, requireAuth)
	owners.GET("/:id", h.GetOwner, requireAuth)
	owners.PATCH("/:id", h.PatchOwner, requireAuth)
	owners.DELETE("/:id", h.DeleteOwner, requireAuth)
	owners.GET("/:id/activity", h.GetOwnerActivity, requireAuth)
}

func registerLedgerRoutes(g *echo.Group, deps Dependencies) {
	accounts := handlers.NewAccountHandler(deps.Accounts)
	g.GET("/accounts", accounts.ListAccounts)
	g.POST("/accounts", accounts.CreateAccount)
	g.GET("/accounts/:id", accounts.GetAccount)
	g.PATCH("/accounts/:id", accounts.PatchAccount)
	g.DELETE("/accounts/:id", accounts.DeleteAccount)

	categories := handlers.NewCategoryHandler(deps.Categories)
	g.GET("/categories", categories.ListCategories)
	g.POST("/categories", categories.CreateCategory)
	g.GET("/categories/:id", categories.GetCategory)
	g.PUT("/categories/:id", categories.UpdateCategory)
	g.DELETE("/categories/:id", categories.DeleteCategory)

	budgets := handlers.NewBudgetHandler(deps.Budgets, deps.Reconciliation)
	g.GET("/budgets", budgets.ListBudgets)
	g.POST("/budgets", budgets.CreateBudget)
	g.GET("/budgets/:id", budgets.GetBudget)
	g.PUT("/budgets/:id", budgets.ReplaceBudget)
	g.DELETE("/budgets/:id", budgets.DeleteBudget)
	g.POST("/budgets/:id/reconcile", budgets.ReconcileBudget, middleware.RequireAdmin())

	transactions := handlers.NewTransactionHandler(deps.Transactions)
	g.GET("/transactions", transactions.ListTransactions)
	g.POST("/transactions", transactions.CreateTransaction)
	g.GET("/transactions/:id", transactions.GetTransaction)
	g.PUT("/transactions/:id", transactions.UpdateTransaction)
	g.DELETE("/transactions/:id", transactions.DeleteTransaction)
}

func registerAdminRoutes(admin *echo.Group, deps Dependencies) {
	h := handlers.NewAdminHandler(deps.Audit, deps.Reconciliation)
	admin.GET("/audit/:resource/:id", h.GetResourceHistory)
	admin.GET("/budgets/drift", h.GetBudgetDrift)
}
