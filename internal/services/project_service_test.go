package services

import (
	"testing"

	"anggaran/internal/models"
	"anggaran/internal/pagination"
	"anggaran/internal/testutil"
)

func TestCreateProject(t *testing.T) {
	t.Run("starts_with_zero_totals", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)
		user := testutil.CreateTestUser(t, db)

		project, err := svc.CreateProject(user.ID, "Rumah Tipe 36", "Perumahan blok C")
		testutil.AssertNoError(t, err)

		if project.TotalCalculatedBudget != 0 || project.ActualIncome != 0 || project.ActualExpenses != 0 {
			t.Errorf("expected zero totals, got %+v", project)
		}
		if project.IsArchived {
			t.Error("new project must not be archived")
		}
	})

	t.Run("requires_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateProject(user.ID, "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetProjectByID(t *testing.T) {
	t.Run("other_users_project_is_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		project := testutil.CreateTestProject(t, db, owner.ID)

		_, err := svc.GetProjectByID(other.ID, project.ID)
		testutil.AssertAppError(t, err, "PROJECT_NOT_FOUND")
	})
}

func TestGetUserProjects(t *testing.T) {
	t.Run("excludes_archived_by_default", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestProject(t, db, user.ID)
		archived := testutil.CreateTestProject(t, db, user.ID)
		_, err := svc.SetArchived(user.ID, archived.ID, true)
		testutil.AssertNoError(t, err)

		page, err := svc.GetUserProjects(user.ID, pagination.PageRequest{}, false)
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 active project, got %d", page.TotalItems)
		}

		all, err := svc.GetUserProjects(user.ID, pagination.PageRequest{}, true)
		testutil.AssertNoError(t, err)
		if all.TotalItems != 2 {
			t.Errorf("expected 2 projects with archived included, got %d", all.TotalItems)
		}
	})
}

func TestGetFullProject(t *testing.T) {
	t.Run("hydrates_items_components_and_entries", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		defSvc := NewDefinitionService(db)
		itemSvc := NewWorkItemService(db, projSvc, defSvc)
		user := testutil.CreateTestUser(t, db)
		unit := testutil.CreateTestUnit(t, db, user.ID)
		price := testutil.CreateTestMaterialPrice(t, db, user.ID, unit.ID, 1000)
		def := testutil.CreateTestDefinition(t, db, user.ID, price.ID, 2)
		project := testutil.CreateTestProject(t, db, user.ID)

		_, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: def.Key,
			PrimaryInput:  float64(4),
		})
		testutil.AssertNoError(t, err)

		full, err := projSvc.GetFullProject(user.ID, project.ID)
		testutil.AssertNoError(t, err)

		if len(full.WorkItems) != 1 {
			t.Fatalf("expected 1 work item, got %d", len(full.WorkItems))
		}
		if len(full.WorkItems[0].Components) != 1 {
			t.Fatalf("expected 1 component, got %d", len(full.WorkItems[0].Components))
		}
		if len(full.CashFlowEntries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(full.CashFlowEntries))
		}
		if full.CashFlowEntries[0].Category == nil {
			t.Error("expected auto entry's category preloaded")
		}
	})
}

func TestDeleteProject(t *testing.T) {
	t.Run("cascades_to_children", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		defSvc := NewDefinitionService(db)
		itemSvc := NewWorkItemService(db, projSvc, defSvc)
		cfSvc := NewCashFlowService(db, projSvc)
		user := testutil.CreateTestUser(t, db)
		unit := testutil.CreateTestUnit(t, db, user.ID)
		price := testutil.CreateTestMaterialPrice(t, db, user.ID, unit.ID, 1000)
		def := testutil.CreateTestDefinition(t, db, user.ID, price.ID, 1)
		project := testutil.CreateTestProject(t, db, user.ID)

		item, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: def.Key,
			PrimaryInput:  float64(2),
		})
		testutil.AssertNoError(t, err)
		_, err = cfSvc.AddManualEntry(user.ID, project.ID, ManualEntryInput{
			Type:   models.CashFlowTypeIncome,
			Amount: 5000,
		})
		testutil.AssertNoError(t, err)

		err = projSvc.DeleteProject(user.ID, project.ID)
		testutil.AssertNoError(t, err)

		_, err = projSvc.GetProjectByID(user.ID, project.ID)
		testutil.AssertAppError(t, err, "PROJECT_NOT_FOUND")

		var count int64
		if err := db.Model(&models.CashFlowEntry{}).
			Where("project_id = ?", project.ID).Count(&count).Error; err != nil {
			t.Fatalf("failed to count entries: %v", err)
		}
		if count != 0 {
			t.Errorf("expected entries removed, got %d", count)
		}
		if err := db.Model(&models.WorkItemComponent{}).
			Where("work_item_id = ?", item.ID).Count(&count).Error; err != nil {
			t.Fatalf("failed to count components: %v", err)
		}
		if count != 0 {
			t.Errorf("expected components removed, got %d", count)
		}
	})
}

func TestRecomputeTotals(t *testing.T) {
	t.Run("matches_running_totals_after_mutations", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		defSvc := NewDefinitionService(db)
		itemSvc := NewWorkItemService(db, projSvc, defSvc)
		cfSvc := NewCashFlowService(db, projSvc)
		user := testutil.CreateTestUser(t, db)
		unit := testutil.CreateTestUnit(t, db, user.ID)
		price := testutil.CreateTestMaterialPrice(t, db, user.ID, unit.ID, 1200000)
		def := testutil.CreateTestDefinition(t, db, user.ID, price.ID, 0.36)
		project := testutil.CreateTestProject(t, db, user.ID)

		_, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: def.Key,
			PrimaryInput:  float64(10),
		})
		testutil.AssertNoError(t, err)
		entry, err := cfSvc.AddManualEntry(user.ID, project.ID, ManualEntryInput{
			Type:   models.CashFlowTypeIncome,
			Amount: 10000000,
		})
		testutil.AssertNoError(t, err)
		err = cfSvc.DeleteManualEntry(user.ID, project.ID, entry.ID)
		testutil.AssertNoError(t, err)
		_, err = cfSvc.AddManualEntry(user.ID, project.ID, ManualEntryInput{
			Type:   models.CashFlowTypeExpense,
			Amount: 250000,
		})
		testutil.AssertNoError(t, err)

		totals, err := projSvc.RecomputeTotals(user.ID, project.ID)
		testutil.AssertNoError(t, err)
		current, err := projSvc.GetProjectByID(user.ID, project.ID)
		testutil.AssertNoError(t, err)

		if totals.TotalCalculatedBudget != current.TotalCalculatedBudget {
			t.Errorf("budget drifted: recomputed %d, stored %d",
				totals.TotalCalculatedBudget, current.TotalCalculatedBudget)
		}
		if totals.ActualIncome != current.ActualIncome {
			t.Errorf("income drifted: recomputed %d, stored %d",
				totals.ActualIncome, current.ActualIncome)
		}
		if totals.ActualExpenses != current.ActualExpenses {
			t.Errorf("expenses drifted: recomputed %d, stored %d",
				totals.ActualExpenses, current.ActualExpenses)
		}
		if totals.TotalCalculatedBudget != 4320000 {
			t.Errorf("expected budget 4320000, got %d", totals.TotalCalculatedBudget)
		}
		if totals.ActualExpenses != 4320000+250000 {
			t.Errorf("expected expenses 4570000, got %d", totals.ActualExpenses)
		}
		if totals.ActualIncome != 0 {
			t.Errorf("expected income 0, got %d", totals.ActualIncome)
		}
	})

	t.Run("detects_manual_drift", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		user := testutil.CreateTestUser(t, db)
		project := testutil.CreateTestProject(t, db, user.ID)

		// Corrupt the cached column directly through the store.
		if err := db.Model(&models.Project{}).Where("id = ?", project.ID).
			Update("actual_income", 99999).Error; err != nil {
			t.Fatalf("failed to corrupt totals: %v", err)
		}

		totals, err := projSvc.RecomputeTotals(user.ID, project.ID)
		testutil.AssertNoError(t, err)
		if totals.ActualIncome != 0 {
			t.Errorf("expected recomputed income 0, got %d", totals.ActualIncome)
		}
	})
}
