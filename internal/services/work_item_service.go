package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"gorm.io/gorm"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
)

// autoCategoryName is the fixed cash flow category that auto-generated
// expense entries are filed under.
const autoCategoryName = "Biaya Item Pekerjaan"

// workItemService handles work item snapshot operations: applying a
// definition to a project and removing an applied item. Every mutation keeps
// the owning project's running totals consistent within one transaction.
type workItemService struct {
	db                *gorm.DB
	projectService    ProjectServicer
	definitionService DefinitionServicer
}

// NewWorkItemService creates a new WorkItemServicer.
func NewWorkItemService(db *gorm.DB, projectService ProjectServicer, definitionService DefinitionServicer) WorkItemServicer {
	return &workItemService{
		db:                db,
		projectService:    projectService,
		definitionService: definitionService,
	}
}

// coercePrimaryInput converts an arbitrary JSON value to a float64 the way
// the apply operation expects: numbers pass through, numeric strings are
// parsed, everything else (including absence) becomes 0.
func coercePrimaryInput(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// quantityPrecision is the decimal precision for stored component
// quantities: 4 places, so 10 * 0.36 persists as 3.6 rather than the raw
// float64 product.
const quantityPrecision = 1e4

func roundQuantity(q float64) float64 {
	return math.Round(q*quantityPrecision) / quantityPrecision
}

// buildSnapshot computes a complete work item snapshot from resolved
// component inputs. Pure: no database access, so the cost computation is
// testable in isolation. Quantity = primaryInput * coefficient, rounded to
// quantityPrecision; cost = quantity * price per unit, rounded to the
// nearest rupiah.
func buildSnapshot(def *models.WorkItemDefinition, primaryInput float64, components []ComponentInput) *models.ProjectWorkItem {
	item := &models.ProjectWorkItem{
		DefinitionID:        &def.ID,
		DefinitionKey:       def.Key,
		Name:                def.Name,
		PrimaryInputValue:   primaryInput,
		PrimaryInputDisplay: formatPrimaryInput(primaryInput, def.PrimaryInputLabel),
		AddedAt:             time.Now(),
	}

	var total int64
	for i, c := range components {
		quantity := roundQuantity(primaryInput * c.Coefficient)
		cost := int64(math.Round(quantity * float64(c.PricePerUnit)))
		item.Components = append(item.Components, models.WorkItemComponent{
			Name:            c.DisplayName,
			Unit:            c.Unit,
			Type:            c.Type,
			Coefficient:     c.Coefficient,
			Quantity:        quantity,
			PricePerUnit:    c.PricePerUnit,
			Cost:            cost,
			MaterialPriceID: c.MaterialPriceID,
			SortOrder:       i,
		})
		total += cost
	}
	item.TotalCostSnapshot = total

	return item
}

func formatPrimaryInput(value float64, label string) string {
	display := strconv.FormatFloat(value, 'f', -1, 64)
	if label != "" {
		display = fmt.Sprintf("%s %s", display, label)
	}
	return display
}

// resolveComponents turns a definition's component lines into ComponentInputs
// with the current catalog price per unit captured for each line.
func (s *workItemService) resolveComponents(def *models.WorkItemDefinition) ([]ComponentInput, error) {
	components := make([]ComponentInput, 0, len(def.Components))
	for _, dc := range def.Components {
		if dc.MaterialPrice.ID == 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
				fmt.Sprintf("component %q references a missing material price", dc.DisplayName))
		}
		priceID := dc.MaterialPriceID
		components = append(components, ComponentInput{
			DisplayName:     dc.DisplayName,
			Unit:            dc.MaterialPrice.Unit.Symbol,
			Type:            dc.Type,
			Coefficient:     dc.Coefficient,
			PricePerUnit:    dc.MaterialPrice.Price,
			MaterialPriceID: &priceID,
		})
	}
	return components, nil
}

// validateComponents checks caller-supplied component lines before any write.
func validateComponents(components []ComponentInput) error {
	for _, c := range components {
		if c.DisplayName == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "component display name is required")
		}
		if c.PricePerUnit < 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "component price per unit cannot be negative")
		}
	}
	return nil
}

// ApplyTemplate applies a work item definition to a project: it freezes the
// cost computation into an immutable snapshot and creates one auto-generated
// expense entry for the snapshot total. All writes happen in one transaction:
// the work item, its component rows, the cash flow entry, and the relative
// increments of the project's total_calculated_budget and actual_expenses.
func (s *workItemService) ApplyTemplate(userID, projectID uint, in ApplyTemplateInput) (*models.ProjectWorkItem, error) {
	if in.DefinitionKey == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "definition key is required")
	}

	project, err := s.projectService.GetProjectByID(userID, projectID)
	if err != nil {
		return nil, err
	}

	def, err := s.definitionService.GetDefinitionByKey(userID, in.DefinitionKey)
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "definition has no name")
	}

	components := in.Components
	if len(components) == 0 {
		components, err = s.resolveComponents(def)
		if err != nil {
			return nil, err
		}
	}
	if err := validateComponents(components); err != nil {
		return nil, err
	}

	primaryInput := coercePrimaryInput(in.PrimaryInput)
	item := buildSnapshot(def, primaryInput, components)
	item.ProjectID = project.ID

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Creates the item together with its component rows.
		if err := tx.Create(item).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		category, err := ensureAutoCategory(tx, userID)
		if err != nil {
			return err
		}

		entry := &models.CashFlowEntry{
			ProjectID:       project.ID,
			EntryDate:       time.Now(),
			Description:     fmt.Sprintf("Biaya pekerjaan: %s", item.Name),
			Type:            models.CashFlowTypeExpense,
			Amount:          item.TotalCostSnapshot,
			CategoryID:      &category.ID,
			IsAutoGenerated: true,
			WorkItemID:      &item.ID,
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		// Relative updates so concurrent increments on the same project
		// compose under row locking instead of losing writes.
		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
			Updates(map[string]interface{}{
				"total_calculated_budget": gorm.Expr("total_calculated_budget + ?", item.TotalCostSnapshot),
				"actual_expenses":         gorm.Expr("actual_expenses + ?", item.TotalCostSnapshot),
			}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// RemoveWorkItem deletes a work item snapshot, its components, and its linked
// auto-generated cash flow entry, reversing the project totals. The budget is
// reversed by the snapshot cost; actual expenses by the linked entry's own
// amount, since that is what was summed in. The snapshot/entry reads, the
// deletes, and the total reversal share one transaction so concurrent
// removals of the same item serialize on the store's row locks; a delete that
// matches no row aborts without touching the totals.
func (s *workItemService) RemoveWorkItem(userID, projectID, workItemID uint) (*models.Project, error) {
	project, err := s.projectService.GetProjectByID(userID, projectID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var item models.ProjectWorkItem
		if err := tx.Where("id = ? AND project_id = ?", workItemID, project.ID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrWorkItemNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		// The linked auto entry's amount drives the expense reversal; a
		// missing entry reverses nothing.
		var linked models.CashFlowEntry
		var expenseReversal int64
		hasLinked := true
		if err := tx.Where("work_item_id = ? AND project_id = ? AND is_auto_generated = ?",
			item.ID, project.ID, true).First(&linked).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			hasLinked = false
		} else {
			expenseReversal = linked.Amount
		}

		if hasLinked {
			if err := tx.Delete(&linked).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if err := tx.Where("work_item_id = ?", item.ID).
			Delete(&models.WorkItemComponent{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		res := tx.Delete(&item)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrWorkItemNotFound
		}

		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
			Updates(map[string]interface{}{
				"total_calculated_budget": gorm.Expr("total_calculated_budget - ?", item.TotalCostSnapshot),
				"actual_expenses":         gorm.Expr("actual_expenses - ?", expenseReversal),
			}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.projectService.GetFullProject(userID, projectID)
}

// ensureAutoCategory returns the user's fixed expense category for
// auto-generated entries, creating it on first use.
func ensureAutoCategory(tx *gorm.DB, userID uint) (*models.CashFlowCategory, error) {
	category := &models.CashFlowCategory{}
	err := tx.Where(models.CashFlowCategory{
		UserID: userID,
		Name:   autoCategoryName,
		Type:   models.CashFlowTypeExpense,
	}).FirstOrCreate(category).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}
