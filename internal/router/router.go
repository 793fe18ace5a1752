// Package router wires services, handlers and middleware into the HTTP API.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "tally/internal/docs" // swagger docs
	"tally/internal/handlers"
	"tally/internal/middleware"
	"tally/internal/notify"
	"tally/internal/services"
)

const (
	loginAttempts   = 10
	tokenAttempts   = 30
	rateLimitWindow = time.Minute
)

// Services bundles the business services the API exposes.
type Services struct {
	Users          services.UserServicer
	Categories     services.CategoryServicer
	Budgets        services.BudgetServicer
	MonthlyBudgets services.MonthlyBudgetServicer
	Updates        services.BudgetUpdateServicer
	Analytics      services.AnalyticsServicer
	Ledger         services.LedgerServicer
}

// NewServices builds the service graph over db. Confirmation and alert
// emails go to notifier; baseURL prefixes the links they carry.
func NewServices(db *gorm.DB, notifier notify.Notifier, baseURL string) *Services {
	audit := services.NewAuditService(db)
	alerts := services.NewAlertService(db, notifier)

	return &Services{
		Users:          services.NewUserService(db),
		Categories:     services.NewCategoryService(db),
		Budgets:        services.NewBudgetService(db, audit),
		MonthlyBudgets: services.NewMonthlyBudgetService(db),
		Updates:        services.NewBudgetUpdateService(db, notifier, audit, baseURL),
		Analytics:      services.NewAnalyticsService(db),
		Ledger:         services.NewLedgerService(db, alerts),
	}
}

// New returns the gin engine serving /api/v1, /api/health and /swagger.
// Background work started for the engine stops when ctx is done.
func New(ctx context.Context, svc *Services) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets, svc.Updates)
	monthlyBudgetHandler := handlers.NewMonthlyBudgetHandler(svc.MonthlyBudgets)
	updateHandler := handlers.NewBudgetUpdateHandler(svc.Updates)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)
	ledgerHandler := handlers.NewLedgerHandler(svc.Ledger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", middleware.RateLimit(ctx, loginAttempts, rateLimitWindow), authHandler.Login)

	// Emailed confirmation links carry their own authorisation.
	updates := v1.Group("/budget-updates", middleware.RateLimit(ctx, tokenAttempts, rateLimitWindow))
	updates.GET("/confirm/:token", updateHandler.Confirm)
	updates.GET("/reject/:token", updateHandler.Reject)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/by-month", budgetHandler.GetBudgetsByMonth)
	budgets.GET("/summary", analyticsHandler.MonthSummary)
	budgets.GET("/summary/export", analyticsHandler.ExportMonthSummary)
	budgets.GET("/analytics", analyticsHandler.Analytics)
	budgets.POST("/monthly", monthlyBudgetHandler.CreateMonthlyBudget)
	budgets.GET("/monthly", monthlyBudgetHandler.GetMonthlyBudgets)
	budgets.PUT("/monthly/:id", monthlyBudgetHandler.UpdateMonthlyBudget)
	budgets.DELETE("/monthly/:id", monthlyBudgetHandler.DeleteMonthlyBudget)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.ProposeUpdate)
	budgets.PATCH("/:id", budgetHandler.ProposeUpdate)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	expenses := protected.Group("/expenses")
	expenses.POST("", ledgerHandler.CreateExpense)
	expenses.GET("", ledgerHandler.GetExpenses)
	expenses.GET("/monthly-summary", analyticsHandler.MonthlyTrend)
	expenses.GET("/summary-by-category", analyticsHandler.CategorySummary)
	expenses.GET("/summary/income-vs-expense", analyticsHandler.IncomeVsExpense)
	expenses.DELETE("/:id", ledgerHandler.DeleteExpense)

	incomes := protected.Group("/incomes")
	incomes.POST("", ledgerHandler.CreateIncome)
	incomes.GET("", ledgerHandler.GetIncomes)
	incomes.GET("/summary", analyticsHandler.IncomeSummary)
	incomes.DELETE("/:id", ledgerHandler.DeleteIncome)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
