package services

import (
	"time"

	"anggaran/internal/models"
	"anggaran/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// ProjectTotals holds totals recomputed from a project's children, used to
// verify the incrementally maintained columns against the source of truth.
type ProjectTotals struct {
	TotalCalculatedBudget int64 `json:"total_calculated_budget"`
	ActualIncome          int64 `json:"actual_income"`
	ActualExpenses        int64 `json:"actual_expenses"`
}

// ProjectServicer defines the contract for project-related business logic.
type ProjectServicer interface {
	CreateProject(userID uint, name, description string) (*models.Project, error)
	GetUserProjects(userID uint, page pagination.PageRequest, includeArchived bool) (*pagination.PageResponse[models.Project], error)
	GetProjectByID(userID, projectID uint) (*models.Project, error)
	GetFullProject(userID, projectID uint) (*models.Project, error)
	UpdateProject(userID, projectID uint, name, description string) (*models.Project, error)
	SetArchived(userID, projectID uint, archived bool) (*models.Project, error)
	DeleteProject(userID, projectID uint) error
	RecomputeTotals(userID, projectID uint) (*ProjectTotals, error)
}

// ComponentInput is one resolved component line passed into ApplyTemplate:
// the price per unit is captured from the catalog at call time so the
// snapshot computation itself never touches the database.
type ComponentInput struct {
	DisplayName     string               `json:"display_name"`
	Unit            string               `json:"unit"`
	Type            models.ComponentType `json:"component_type"`
	Coefficient     float64              `json:"coefficient"`
	PricePerUnit    int64                `json:"price_per_unit"`
	MaterialPriceID *uint                `json:"material_price_id,omitempty"`
}

// ApplyTemplateInput carries the parameters for applying a work item
// definition to a project. PrimaryInput accepts any JSON value and is coerced
// to a number, defaulting to 0 when absent or non-numeric. When Components is
// empty the definition's components are resolved against the current catalog
// prices before the transaction starts.
type ApplyTemplateInput struct {
	DefinitionKey string
	PrimaryInput  any
	Components    []ComponentInput
}

// WorkItemServicer defines the contract for work item snapshot operations.
type WorkItemServicer interface {
	ApplyTemplate(userID, projectID uint, in ApplyTemplateInput) (*models.ProjectWorkItem, error)
	RemoveWorkItem(userID, projectID, workItemID uint) (*models.Project, error)
}

// ManualEntryInput carries the fields for creating a manual cash flow entry.
type ManualEntryInput struct {
	EntryDate   time.Time
	Description string
	Type        models.CashFlowType
	Amount      int64
	CategoryID  *uint
}

// UpdateEntryInput carries optional field updates for a manual cash flow
// entry. Nil fields are left unchanged.
type UpdateEntryInput struct {
	EntryDate   *time.Time
	Description *string
	Type        *models.CashFlowType
	Amount      *int64
	CategoryID  *uint
}

// CashFlowServicer defines the contract for manual cash flow entry operations.
// Auto-generated entries are owned by the work item lifecycle and are rejected
// by every operation here.
type CashFlowServicer interface {
	AddManualEntry(userID, projectID uint, in ManualEntryInput) (*models.CashFlowEntry, error)
	UpdateManualEntry(userID, projectID, entryID uint, in UpdateEntryInput) (*models.CashFlowEntry, error)
	DeleteManualEntry(userID, projectID, entryID uint) error
}

// ProjectMonthlySummary holds one project's cash flow totals for a month.
type ProjectMonthlySummary struct {
	ProjectID   uint   `json:"project_id"`
	ProjectName string `json:"project_name"`
	Income      int64  `json:"income"`
	Expenses    int64  `json:"expenses"`
	Net         int64  `json:"net"`
}

// MonthlySummary is the month-over-month view across a user's non-archived
// projects. Projects contains only projects with activity in the month;
// the overall totals and AvailableMonths are computed over the full set.
type MonthlySummary struct {
	Month           string                  `json:"month"`
	Projects        []ProjectMonthlySummary `json:"projects"`
	TotalIncome     int64                   `json:"total_income"`
	TotalExpenses   int64                   `json:"total_expenses"`
	TotalNet        int64                   `json:"total_net"`
	AvailableMonths []string                `json:"available_months"`
}

// SummaryServicer defines the contract for monthly cash flow aggregation.
type SummaryServicer interface {
	SummarizeByMonth(userID uint, month string) (*MonthlySummary, error)
}

// CatalogServicer defines the contract for the priced-catalog CRUD: units,
// work item categories, cash flow categories, and material prices.
type CatalogServicer interface {
	CreateUnit(userID uint, name, symbol string) (*models.Unit, error)
	GetUserUnits(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Unit], error)
	UpdateUnit(userID, unitID uint, name, symbol string) (*models.Unit, error)
	DeleteUnit(userID, unitID uint) error

	CreateWorkItemCategory(userID uint, name string) (*models.WorkItemCategory, error)
	GetUserWorkItemCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.WorkItemCategory], error)
	DeleteWorkItemCategory(userID, categoryID uint) error

	CreateCashFlowCategory(userID uint, name string, categoryType models.CashFlowType) (*models.CashFlowCategory, error)
	GetUserCashFlowCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.CashFlowCategory], error)
	DeleteCashFlowCategory(userID, categoryID uint) error

	CreateMaterialPrice(userID uint, name string, componentType models.ComponentType, unitID uint, price int64) (*models.MaterialPrice, error)
	GetUserMaterialPrices(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.MaterialPrice], error)
	GetMaterialPriceByID(userID, priceID uint) (*models.MaterialPrice, error)
	UpdateMaterialPrice(userID, priceID uint, name *string, price *int64) (*models.MaterialPrice, error)
	DeleteMaterialPrice(userID, priceID uint) error
}

// DefinitionComponentInput is one component line of a definition payload.
type DefinitionComponentInput struct {
	DisplayName     string
	MaterialPriceID uint
	Type            models.ComponentType
	Coefficient     float64
}

// DefinitionInput carries the fields for creating or replacing a work item
// definition together with its ordered components.
type DefinitionInput struct {
	Key               string
	Name              string
	CategoryID        *uint
	PrimaryInputLabel string
	Components        []DefinitionComponentInput
}

// DefinitionServicer defines the contract for work item definition CRUD.
type DefinitionServicer interface {
	CreateDefinition(userID uint, in DefinitionInput) (*models.WorkItemDefinition, error)
	GetUserDefinitions(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.WorkItemDefinition], error)
	GetDefinitionByKey(userID uint, key string) (*models.WorkItemDefinition, error)
	UpdateDefinition(userID, definitionID uint, in DefinitionInput) (*models.WorkItemDefinition, error)
	DeleteDefinition(userID, definitionID uint) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
