package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"anggaran/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestProject creates an empty project with zero totals.
func CreateTestProject(t *testing.T, db *gorm.DB, userID uint) *models.Project {
	t.Helper()

	project := &models.Project{
		UserID: userID,
		Name:   fmt.Sprintf("Test Project %d", nextID()),
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

// CreateTestUnit creates a measurement unit.
func CreateTestUnit(t *testing.T, db *gorm.DB, userID uint) *models.Unit {
	t.Helper()

	n := nextID()
	unit := &models.Unit{
		UserID: userID,
		Name:   fmt.Sprintf("Test Unit %d", n),
		Symbol: fmt.Sprintf("u%d", n),
	}
	if err := db.Create(unit).Error; err != nil {
		t.Fatalf("failed to create test unit: %v", err)
	}
	return unit
}

// CreateTestMaterialPrice creates a material catalog price (whole rupiah).
func CreateTestMaterialPrice(t *testing.T, db *gorm.DB, userID, unitID uint, price int64) *models.MaterialPrice {
	t.Helper()

	mp := &models.MaterialPrice{
		UserID: userID,
		Name:   fmt.Sprintf("Test Material %d", nextID()),
		Type:   models.ComponentTypeMaterial,
		UnitID: unitID,
		Price:  price,
	}
	if err := db.Create(mp).Error; err != nil {
		t.Fatalf("failed to create test material price: %v", err)
	}
	return mp
}

// CreateTestDefinition creates a work item definition with one component
// line referencing the given material price with the given coefficient.
func CreateTestDefinition(t *testing.T, db *gorm.DB, userID uint, materialPriceID uint, coefficient float64) *models.WorkItemDefinition {
	t.Helper()

	n := nextID()
	def := &models.WorkItemDefinition{
		UserID:            userID,
		Key:               fmt.Sprintf("test-def-%d", n),
		Name:              fmt.Sprintf("Test Definition %d", n),
		PrimaryInputLabel: "m²",
		Components: []models.DefinitionComponent{
			{
				DisplayName:     fmt.Sprintf("Test Component %d", n),
				MaterialPriceID: materialPriceID,
				Type:            models.ComponentTypeMaterial,
				Coefficient:     coefficient,
			},
		},
	}
	if err := db.Create(def).Error; err != nil {
		t.Fatalf("failed to create test definition: %v", err)
	}
	return def
}

// CreateTestCashFlowCategory creates a cash flow category of the given type.
func CreateTestCashFlowCategory(t *testing.T, db *gorm.DB, userID uint, categoryType models.CashFlowType) *models.CashFlowCategory {
	t.Helper()

	category := &models.CashFlowCategory{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test cash flow category: %v", err)
	}
	return category
}

// CreateTestEntry creates a manual cash flow entry dated at the given time
// and adjusts the project's running total the way the service would.
func CreateTestEntry(t *testing.T, db *gorm.DB, projectID uint, entryType models.CashFlowType, amount int64, date time.Time) *models.CashFlowEntry {
	t.Helper()

	entry := &models.CashFlowEntry{
		ProjectID: projectID,
		EntryDate: date,
		Type:      entryType,
		Amount:    amount,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test cash flow entry: %v", err)
	}

	column := "actual_income"
	if entryType == models.CashFlowTypeExpense {
		column = "actual_expenses"
	}
	if err := db.Model(&models.Project{}).Where("id = ?", projectID).
		Update(column, gorm.Expr(column+" + ?", amount)).Error; err != nil {
		t.Fatalf("failed to adjust project total: %v", err)
	}
	return entry
}
