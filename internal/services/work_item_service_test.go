package services

import (
	"testing"

	"anggaran/internal/models"
	"anggaran/internal/testutil"
)

func TestApplyTemplate(t *testing.T) {
	t.Run("freezes_costs_and_updates_totals", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		defSvc := NewDefinitionService(db)
		itemSvc := NewWorkItemService(db, projSvc, defSvc)
		user := testutil.CreateTestUser(t, db)
		unit := testutil.CreateTestUnit(t, db, user.ID)
		// Semen 1,200,000/m³, 0.36 m³ per m² of plasterwork.
		price := testutil.CreateTestMaterialPrice(t, db, user.ID, unit.ID, 1200000)
		def := testutil.CreateTestDefinition(t, db, user.ID, price.ID, 0.36)
		project := testutil.CreateTestProject(t, db, user.ID)

		item, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: def.Key,
			PrimaryInput:  float64(10),
		})
		testutil.AssertNoError(t, err)

		if item.TotalCostSnapshot != 4320000 {
			t.Errorf("expected snapshot total 4320000, got %d", item.TotalCostSnapshot)
		}
		if len(item.Components) != 1 {
			t.Fatalf("expected 1 component, got %d", len(item.Components))
		}
		comp := item.Components[0]
		if comp.Quantity != 3.6 {
			t.Errorf("expected quantity 3.6, got %v", comp.Quantity)
		}
		if comp.Cost != 4320000 {
			t.Errorf("expected component cost 4320000, got %d", comp.Cost)
		}
		if comp.PricePerUnit != 1200000 {
			t.Errorf("expected price per unit 1200000, got %d", comp.PricePerUnit)
		}

		updated, err := projSvc.GetProjectByID(user.ID, project.ID)
		testutil.AssertNoError(t, err)
		if updated.TotalCalculatedBudget != 4320000 {
			t.Errorf("expected budget 4320000, got %d", updated.TotalCalculatedBudget)
		}
		if updated.ActualExpenses != 4320000 {
			t.Errorf("expected expenses 4320000, got %d", updated.ActualExpenses)
		}

		// Exactly one auto-generated expense entry linked to the item.
		var entries []models.CashFlowEntry
		if err := db.Where("project_id = ?", project.ID).Find(&entries).Error; err != nil {
			t.Fatalf("failed to load entries: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected exactly 1 cash flow entry, got %d", len(entries))
		}
		entry := entries[0]
		if !entry.IsAutoGenerated {
			t.Error("expected entry to be auto-generated")
		}
		if entry.Type != models.CashFlowTypeExpense {
			t.Errorf("expected expense entry, got %s", entry.Type)
		}
		if entry.Amount != 4320000 {
			t.Errorf("expected entry amount 4320000, got %d", entry.Amount)
		}
		if entry.WorkItemID == nil || *entry.WorkItemID != item.ID {
			t.Error("expected entry linked to the applied work item")
		}
	})

	t.Run("string_primary_input_is_coerced", func(t *testing.T) {
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

		item, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: def.Key,
			PrimaryInput:  "5",
		})
		testutil.AssertNoError(t, err)
		if item.TotalCostSnapshot != 10000 {
			t.Errorf("expected 10000 (5 * 2 * 1000), got %d", item.TotalCostSnapshot)
		}
	})

	t.Run("missing_primary_input_defaults_to_zero_cost", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		defSvc := NewDefinitionService(db)
		itemSvc := NewWorkItemService(db, projSvc, defSvc)
		user := testutil.CreateTestUser(t, db)
		unit := testutil.CreateTestUnit(t, db, user.ID)
		price := testutil.CreateTestMaterialPrice(t, db, user.ID, unit.ID, 1200000)
		def := testutil.CreateTestDefinition(t, db, user.ID, price.ID, 0.36)
		project := testutil.CreateTestProject(t, db, user.ID)

		item, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: def.Key,
			PrimaryInput:  "not a number",
		})
		testutil.AssertNoError(t, err)
		if item.TotalCostSnapshot != 0 {
			t.Errorf("expected zero-cost snapshot, got %d", item.TotalCostSnapshot)
		}

		updated, err := projSvc.GetProjectByID(user.ID, project.ID)
		testutil.AssertNoError(t, err)
		if updated.TotalCalculatedBudget != 0 || updated.ActualExpenses != 0 {
			t.Errorf("expected zero totals, got budget=%d expenses=%d",
				updated.TotalCalculatedBudget, updated.ActualExpenses)
		}
	})

	t.Run("caller_supplied_components", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		defSvc := NewDefinitionService(db)
		itemSvc := NewWorkItemService(db, projSvc, defSvc)
		user := testutil.CreateTestUser(t, db)
		unit := testutil.CreateTestUnit(t, db, user.ID)
		price := testutil.CreateTestMaterialPrice(t, db, user.ID, unit.ID, 1200000)
		def := testutil.CreateTestDefinition(t, db, user.ID, price.ID, 0.36)
		project := testutil.CreateTestProject(t, db, user.ID)

		item, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: def.Key,
			PrimaryInput:  float64(2),
			Components: []ComponentInput{
				{DisplayName: "Pasir", Unit: "m³", Type: models.ComponentTypeMaterial, Coefficient: 0.5, PricePerUnit: 200000},
				{DisplayName: "Tukang", Unit: "OH", Type: models.ComponentTypeLabor, Coefficient: 1, PricePerUnit: 150000},
			},
		})
		testutil.AssertNoError(t, err)

		// 2*0.5*200000 + 2*1*150000 = 200000 + 300000
		if item.TotalCostSnapshot != 500000 {
			t.Errorf("expected 500000, got %d", item.TotalCostSnapshot)
		}
		if len(item.Components) != 2 {
			t.Fatalf("expected 2 components, got %d", len(item.Components))
		}
		if item.Components[0].SortOrder != 0 || item.Components[1].SortOrder != 1 {
			t.Error("expected components to keep their order")
		}
	})

	t.Run("missing_definition_key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		itemSvc := NewWorkItemService(db, projSvc, NewDefinitionService(db))
		user := testutil.CreateTestUser(t, db)
		project := testutil.CreateTestProject(t, db, user.ID)

		_, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_definition_key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		itemSvc := NewWorkItemService(db, projSvc, NewDefinitionService(db))
		user := testutil.CreateTestUser(t, db)
		project := testutil.CreateTestProject(t, db, user.ID)

		_, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: "no-such-definition",
			PrimaryInput:  float64(1),
		})
		testutil.AssertAppError(t, err, "DEFINITION_NOT_FOUND")
	})

	t.Run("wrong_user_project", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		defSvc := NewDefinitionService(db)
		itemSvc := NewWorkItemService(db, projSvc, defSvc)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		unit := testutil.CreateTestUnit(t, db, other.ID)
		price := testutil.CreateTestMaterialPrice(t, db, other.ID, unit.ID, 1000)
		def := testutil.CreateTestDefinition(t, db, other.ID, price.ID, 1)
		project := testutil.CreateTestProject(t, db, owner.ID)

		_, err := itemSvc.ApplyTemplate(other.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: def.Key,
			PrimaryInput:  float64(1),
		})
		testutil.AssertAppError(t, err, "PROJECT_NOT_FOUND")
	})
}

func TestRemoveWorkItem(t *testing.T) {
	t.Run("apply_then_remove_round_trip", func(t *testing.T) {
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

		item, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: def.Key,
			PrimaryInput:  float64(10),
		})
		testutil.AssertNoError(t, err)

		// Manual income alongside the applied item.
		_, err = cfSvc.AddManualEntry(user.ID, project.ID, ManualEntryInput{
			Type:   models.CashFlowTypeIncome,
			Amount: 10000000,
		})
		testutil.AssertNoError(t, err)

		updated, err := itemSvc.RemoveWorkItem(user.ID, project.ID, item.ID)
		testutil.AssertNoError(t, err)

		if updated.TotalCalculatedBudget != 0 {
			t.Errorf("expected budget 0 after removal, got %d", updated.TotalCalculatedBudget)
		}
		if updated.ActualExpenses != 0 {
			t.Errorf("expected expenses 0 after removal, got %d", updated.ActualExpenses)
		}
		if updated.ActualIncome != 10000000 {
			t.Errorf("expected manual income untouched, got %d", updated.ActualIncome)
		}

		// Linked auto entry and component snapshots are gone; the manual
		// entry remains.
		if len(updated.CashFlowEntries) != 1 {
			t.Fatalf("expected 1 remaining entry, got %d", len(updated.CashFlowEntries))
		}
		if updated.CashFlowEntries[0].IsAutoGenerated {
			t.Error("expected remaining entry to be the manual income entry")
		}
		var compCount int64
		if err := db.Model(&models.WorkItemComponent{}).
			Where("work_item_id = ?", item.ID).Count(&compCount).Error; err != nil {
			t.Fatalf("failed to count components: %v", err)
		}
		if compCount != 0 {
			t.Errorf("expected component snapshots removed, got %d", compCount)
		}
	})

	t.Run("reverses_expenses_by_entry_amount_when_diverged", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		defSvc := NewDefinitionService(db)
		itemSvc := NewWorkItemService(db, projSvc, defSvc)
		user := testutil.CreateTestUser(t, db)
		unit := testutil.CreateTestUnit(t, db, user.ID)
		price := testutil.CreateTestMaterialPrice(t, db, user.ID, unit.ID, 1000)
		def := testutil.CreateTestDefinition(t, db, user.ID, price.ID, 1)
		project := testutil.CreateTestProject(t, db, user.ID)

		item, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: def.Key,
			PrimaryInput:  float64(10),
		})
		testutil.AssertNoError(t, err)
		if item.TotalCostSnapshot != 10000 {
			t.Fatalf("expected snapshot 10000, got %d", item.TotalCostSnapshot)
		}

		// Force the (normally impossible) divergence between the snapshot
		// cost and the linked entry amount directly through the store.
		if err := db.Model(&models.CashFlowEntry{}).
			Where("work_item_id = ?", item.ID).
			Updates(map[string]interface{}{"amount": 7000}).Error; err != nil {
			t.Fatalf("failed to force divergence: %v", err)
		}
		if err := db.Model(&models.Project{}).Where("id = ?", project.ID).
			Update("actual_expenses", 7000).Error; err != nil {
			t.Fatalf("failed to force divergence: %v", err)
		}

		updated, err := itemSvc.RemoveWorkItem(user.ID, project.ID, item.ID)
		testutil.AssertNoError(t, err)

		// Budget reversed by the snapshot cost, expenses by the entry's own
		// amount: both land back at zero.
		if updated.TotalCalculatedBudget != 0 {
			t.Errorf("expected budget 0, got %d", updated.TotalCalculatedBudget)
		}
		if updated.ActualExpenses != 0 {
			t.Errorf("expected expenses 0, got %d", updated.ActualExpenses)
		}
	})

	t.Run("missing_linked_entry_reverses_budget_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		defSvc := NewDefinitionService(db)
		itemSvc := NewWorkItemService(db, projSvc, defSvc)
		user := testutil.CreateTestUser(t, db)
		unit := testutil.CreateTestUnit(t, db, user.ID)
		price := testutil.CreateTestMaterialPrice(t, db, user.ID, unit.ID, 1000)
		def := testutil.CreateTestDefinition(t, db, user.ID, price.ID, 1)
		project := testutil.CreateTestProject(t, db, user.ID)

		item, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: def.Key,
			PrimaryInput:  float64(5),
		})
		testutil.AssertNoError(t, err)

		// Simulate a missing linked entry.
		if err := db.Where("work_item_id = ?", item.ID).
			Delete(&models.CashFlowEntry{}).Error; err != nil {
			t.Fatalf("failed to delete linked entry: %v", err)
		}

		updated, err := itemSvc.RemoveWorkItem(user.ID, project.ID, item.ID)
		testutil.AssertNoError(t, err)
		if updated.TotalCalculatedBudget != 0 {
			t.Errorf("expected budget 0, got %d", updated.TotalCalculatedBudget)
		}
		// Expenses were incremented at apply time but there is no entry to
		// reverse by; they stay as the entries sum dictates.
		if updated.ActualExpenses != 5000 {
			t.Errorf("expected expenses 5000, got %d", updated.ActualExpenses)
		}
	})

	t.Run("repeat_removal_leaves_totals_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		defSvc := NewDefinitionService(db)
		itemSvc := NewWorkItemService(db, projSvc, defSvc)
		user := testutil.CreateTestUser(t, db)
		unit := testutil.CreateTestUnit(t, db, user.ID)
		price := testutil.CreateTestMaterialPrice(t, db, user.ID, unit.ID, 1000)
		def := testutil.CreateTestDefinition(t, db, user.ID, price.ID, 1)
		project := testutil.CreateTestProject(t, db, user.ID)

		item, err := itemSvc.ApplyTemplate(user.ID, project.ID, ApplyTemplateInput{
			DefinitionKey: def.Key,
			PrimaryInput:  float64(10),
		})
		testutil.AssertNoError(t, err)

		_, err = itemSvc.RemoveWorkItem(user.ID, project.ID, item.ID)
		testutil.AssertNoError(t, err)

		_, err = itemSvc.RemoveWorkItem(user.ID, project.ID, item.ID)
		testutil.AssertAppError(t, err, "WORK_ITEM_NOT_FOUND")

		// The failed repeat removal must not reverse the totals a second
		// time.
		updated, err := projSvc.GetProjectByID(user.ID, project.ID)
		testutil.AssertNoError(t, err)
		if updated.TotalCalculatedBudget != 0 {
			t.Errorf("expected budget still 0 after repeat removal, got %d", updated.TotalCalculatedBudget)
		}
		if updated.ActualExpenses != 0 {
			t.Errorf("expected expenses still 0 after repeat removal, got %d", updated.ActualExpenses)
		}
	})

	t.Run("unknown_work_item", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		itemSvc := NewWorkItemService(db, projSvc, NewDefinitionService(db))
		user := testutil.CreateTestUser(t, db)
		project := testutil.CreateTestProject(t, db, user.ID)

		_, err := itemSvc.RemoveWorkItem(user.ID, project.ID, 99999)
		testutil.AssertAppError(t, err, "WORK_ITEM_NOT_FOUND")
	})
}

func TestBuildSnapshot(t *testing.T) {
	def := &models.WorkItemDefinition{
		Key:               "pekerjaan-plesteran",
		Name:              "Pekerjaan Plesteran",
		PrimaryInputLabel: "m²",
	}
	def.ID = 7

	item := buildSnapshot(def, 10, []ComponentInput{
		{DisplayName: "Semen", Unit: "m³", Type: models.ComponentTypeMaterial, Coefficient: 0.36, PricePerUnit: 1200000},
		{DisplayName: "Tukang", Unit: "OH", Type: models.ComponentTypeLabor, Coefficient: 0.2, PricePerUnit: 150000},
	})

	if item.TotalCostSnapshot != 4320000+300000 {
		t.Errorf("expected total 4620000, got %d", item.TotalCostSnapshot)
	}
	// 10 * 0.36 must store exactly 3.6, not the raw float64 product.
	if item.Components[0].Quantity != 3.6 {
		t.Errorf("expected quantity 3.6, got %v", item.Components[0].Quantity)
	}
	if item.Components[1].Quantity != 2 {
		t.Errorf("expected quantity 2, got %v", item.Components[1].Quantity)
	}
	var sum int64
	for _, c := range item.Components {
		sum += c.Cost
	}
	if sum != item.TotalCostSnapshot {
		t.Errorf("snapshot total %d does not equal component sum %d", item.TotalCostSnapshot, sum)
	}
	if item.PrimaryInputDisplay != "10 m²" {
		t.Errorf("expected display '10 m²', got %q", item.PrimaryInputDisplay)
	}
	if item.DefinitionKey != "pekerjaan-plesteran" {
		t.Errorf("unexpected definition key %q", item.DefinitionKey)
	}
}

func TestCoercePrimaryInput(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"float", 12.5, 12.5},
		{"int", 7, 7},
		{"numeric_string", "3.5", 3.5},
		{"garbage_string", "sepuluh", 0},
		{"bool", true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := coercePrimaryInput(tc.in); got != tc.want {
				t.Errorf("coercePrimaryInput(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
