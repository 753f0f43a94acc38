package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"anggaran/internal/handlers"
	"anggaran/internal/logger"
	"anggaran/internal/middleware"
	"anggaran/internal/models"
	"anggaran/internal/services"
	"anggaran/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Unit{},
		&models.WorkItemCategory{},
		&models.CashFlowCategory{},
		&models.MaterialPrice{},
		&models.WorkItemDefinition{},
		&models.DefinitionComponent{},
		&models.Project{},
		&models.ProjectWorkItem{},
		&models.WorkItemComponent{},
		&models.CashFlowEntry{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	projectService := services.NewProjectService(db)
	catalogService := services.NewCatalogService(db)
	definitionService := services.NewDefinitionService(db)
	workItemService := services.NewWorkItemService(db, projectService, definitionService)
	cashFlowService := services.NewCashFlowService(db, projectService)
	summaryService := services.NewSummaryService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	projectHandler := handlers.NewProjectHandler(projectService, auditService)
	workItemHandler := handlers.NewWorkItemHandler(workItemService, projectService, auditService)
	cashFlowHandler := handlers.NewCashFlowHandler(cashFlowService, projectService, auditService)
	summaryHandler := handlers.NewSummaryHandler(summaryService)
	catalogHandler := handlers.NewCatalogHandler(catalogService, auditService)
	definitionHandler := handlers.NewDefinitionHandler(definitionService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/auth/profile", authHandler.GetProfile)

	projects := protected.Group("/projects")
	projects.POST("", projectHandler.CreateProject)
	projects.GET("", projectHandler.GetProjects)
	projects.GET("/:id", projectHandler.GetProject)
	projects.PUT("/:id", projectHandler.UpdateProject)
	projects.DELETE("/:id", projectHandler.DeleteProject)
	projects.POST("/:id/archive", projectHandler.ArchiveProject)
	projects.GET("/:id/totals", projectHandler.RecomputeTotals)
	projects.POST("/:id/work-items", workItemHandler.ApplyTemplate)
	projects.DELETE("/:id/work-items/:itemId", workItemHandler.RemoveWorkItem)
	projects.POST("/:id/cash-flow", cashFlowHandler.CreateEntry)
	projects.PUT("/:id/cash-flow/:entryId", cashFlowHandler.UpdateEntry)
	projects.DELETE("/:id/cash-flow/:entryId", cashFlowHandler.DeleteEntry)

	protected.GET("/summary/monthly", summaryHandler.GetMonthlySummary)

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

	definitions := protected.Group("/definitions")
	definitions.POST("", definitionHandler.CreateDefinition)
	definitions.GET("", definitionHandler.GetDefinitions)
	definitions.GET("/:key", definitionHandler.GetDefinition)
	definitions.PUT("/:id", definitionHandler.UpdateDefinition)
	definitions.DELETE("/:id", definitionHandler.DeleteDefinition)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(float64)
}

// setupCatalog creates a unit, a material price, and a work item definition
// with a single component, returning the definition key.
func (app *testApp) setupCatalog(t *testing.T, token string, price int64, coefficient float64) string {
	t.Helper()

	rec := app.request("POST", "/api/v1/catalog/units",
		`{"name":"meter persegi","symbol":"m²"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create unit failed: %d %s", rec.Code, rec.Body.String())
	}
	unitID := parseJSON(t, rec)["unit"].(map[string]interface{})["id"].(float64)

	rec = app.request("POST", "/api/v1/catalog/material-prices",
		fmt.Sprintf(`{"name":"Pasir beton","component_type":"material","unit_id":%.0f,"price":%d}`, unitID, price), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create material price failed: %d %s", rec.Code, rec.Body.String())
	}
	priceID := parseJSON(t, rec)["material_price"].(map[string]interface{})["id"].(float64)

	rec = app.request("POST", "/api/v1/definitions",
		fmt.Sprintf(`{"key":"pondasi-batu-kali","name":"Pondasi Batu Kali","primary_input_label":"m²","components":[{"display_name":"Pasir beton","material_price_id":%.0f,"component_type":"material","coefficient":%g}]}`,
			priceID, coefficient), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create definition failed: %d %s", rec.Code, rec.Body.String())
	}

	return "pondasi-batu-kali"
}
