package main

import (
	"fmt"
	"net/http"
	"os"

	"anggaran/internal/config"
	"anggaran/internal/database"
	"anggaran/internal/handlers"
	"anggaran/internal/logger"
	"anggaran/internal/middleware"
	"anggaran/internal/services"
	"anggaran/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "anggaran/internal/docs" // Import swagger docs
)

// @title           Anggaran API
// @version         1.0
// @description     Anggaran is a construction project ledger that applies priced work item templates to project budgets and tracks cash flow against them.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	projectService := services.NewProjectService(db)
	catalogService := services.NewCatalogService(db)
	definitionService := services.NewDefinitionService(db)
	workItemService := services.NewWorkItemService(db, projectService, definitionService)
	cashFlowService := services.NewCashFlowService(db, projectService)
	summaryService := services.NewSummaryService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	projectHandler := handlers.NewProjectHandler(projectService, auditService)
	workItemHandler := handlers.NewWorkItemHandler(workItemService, projectService, auditService)
	cashFlowHandler := handlers.NewCashFlowHandler(cashFlowService, projectService, auditService)
	summaryHandler := handlers.NewSummaryHandler(summaryService)
	catalogHandler := handlers.NewCatalogHandler(catalogService, auditService)
	definitionHandler := handlers.NewDefinitionHandler(definitionService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/auth/profile", authHandler.GetProfile)

	// Project routes
	projects := protected.Group("/projects")
	projects.POST("", projectHandler.CreateProject)
	projects.GET("", projectHandler.GetProjects)
	projects.GET("/:id", projectHandler.GetProject)
	projects.PUT("/:id", projectHandler.UpdateProject)
	projects.DELETE("/:id", projectHandler.DeleteProject)
	projects.POST("/:id/archive", projectHandler.ArchiveProject)
	projects.GET("/:id/totals", projectHandler.RecomputeTotals)

	// Work item routes
	projects.POST("/:id/work-items", workItemHandler.ApplyTemplate)
	projects.DELETE("/:id/work-items/:itemId", workItemHandler.RemoveWorkItem)

	// Cash flow routes
	projects.POST("/:id/cash-flow", cashFlowHandler.CreateEntry)
	projects.PUT("/:id/cash-flow/:entryId", cashFlowHandler.UpdateEntry)
	projects.DELETE("/:id/cash-flow/:entryId", cashFlowHandler.DeleteEntry)

	// Summary routes
	protected.GET("/summary/monthly", summaryHandler.GetMonthlySummary)

	// Catalog routes
	catalog := protected.Group("/catalog")
	catalog.POST("/units", catalogHandler.CreateUnit)
	catalog.GET("/units", catalogHandler.GetUnits)
	catalog.PUT("/units/:id", catalogHandler.UpdateUnit)
	catalog.DELETE("/units/:id", catalogHandler.DeleteUnit)
	catalog.POST("/work-item-categories", catalogHandler.CreateWorkItemCategory)
	catalog.GET("/work-item-categories", catalogHandler.GetWorkItemCategories)
	catalog.DELETE("/work-item-categories/:id", catalogHandler.DeleteWorkItemCategory)
	catalog.POST("/cash-flow-categories", catalogHandler.CreateCashFlowCategory)
	catalog.GET("/cash-flow-categories", catalogHandler.GetCashFlowCategories)
	catalog.DELETE("/cash-flow-categories/:id", catalogHandler.DeleteCashFlowCategory)
	catalog.POST("/material-prices", catalogHandler.CreateMaterialPrice)
	catalog.GET("/material-prices", catalogHandler.GetMaterialPrices)
	catalog.PUT("/material-prices/:id", catalogHandler.UpdateMaterialPrice)
	catalog.DELETE("/material-prices/:id", catalogHandler.DeleteMaterialPrice)

	// Work item definition routes
	definitions := protected.Group("/definitions")
	definitions.POST("", definitionHandler.CreateDefinition)
	definitions.GET("", definitionHandler.GetDefinitions)
	definitions.GET("/:key", definitionHandler.GetDefinition)
	definitions.PUT("/:id", definitionHandler.UpdateDefinition)
	definitions.DELETE("/:id", definitionHandler.DeleteDefinition)

	log.Infof("Starting Anggaran backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
