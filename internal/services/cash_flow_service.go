package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
)

// cashFlowService handles manual cash flow entries. Every mutation adjusts
// the owning project's actual_income/actual_expenses in the same transaction
// so the running totals always equal the sum over existing entries.
type cashFlowService struct {
	db             *gorm.DB
	projectService ProjectServicer
}

// NewCashFlowService creates a new CashFlowServicer.
func NewCashFlowService(db *gorm.DB, projectService ProjectServicer) CashFlowServicer {
	return &cashFlowService{db: db, projectService: projectService}
}

// totalColumn maps a cash flow type to the project column it is summed into.
func totalColumn(t models.CashFlowType) (string, error) {
	switch t {
	case models.CashFlowTypeIncome:
		return "actual_income", nil
	case models.CashFlowTypeExpense:
		return "actual_expenses", nil
	default:
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income or expense")
	}
}

// AddManualEntry creates a manual cash flow entry and increments the matching
// project total in one transaction.
func (s *cashFlowService) AddManualEntry(userID, projectID uint, in ManualEntryInput) (*models.CashFlowEntry, error) {
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	column, err := totalColumn(in.Type)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if err := s.verifyCategory(userID, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	project, err := s.projectService.GetProjectByID(userID, projectID)
	if err != nil {
		return nil, err
	}

	entryDate := in.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now()
	}

	entry := &models.CashFlowEntry{
		ProjectID:       project.ID,
		EntryDate:       entryDate,
		Description:     in.Description,
		Type:            in.Type,
		Amount:          in.Amount,
		CategoryID:      in.CategoryID,
		IsAutoGenerated: false,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
			Update(column, gorm.Expr(column+" + ?", entry.Amount)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// UpdateManualEntry updates a manual entry's fields. The running totals are
// adjusted by reversing the old amount from the old type's column and
// applying the new amount to the new type's column, because the type may
// change between income and expense.
func (s *cashFlowService) UpdateManualEntry(userID, projectID, entryID uint, in UpdateEntryInput) (*models.CashFlowEntry, error) {
	if in.Amount != nil && *in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.Type != nil {
		if _, err := totalColumn(*in.Type); err != nil {
			return nil, err
		}
	}
	if in.CategoryID != nil {
		if err := s.verifyCategory(userID, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	project, err := s.projectService.GetProjectByID(userID, projectID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.EntryDate != nil {
		updates["entry_date"] = *in.EntryDate
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Type != nil {
		updates["type"] = *in.Type
	}
	if in.Amount != nil {
		updates["amount"] = *in.Amount
	}
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}

	// The old amount/type read and the compensating updates share one
	// transaction so the store's row locking serializes concurrent edits of
	// the same entry.
	var entry *models.CashFlowEntry
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = getManualEntry(tx, project.ID, entryID)
		if err != nil {
			return err
		}

		oldType := entry.Type
		oldAmount := entry.Amount

		newType := oldType
		if in.Type != nil {
			newType = *in.Type
		}
		newAmount := oldAmount
		if in.Amount != nil {
			newAmount = *in.Amount
		}

		oldColumn, _ := totalColumn(oldType)
		newColumn, _ := totalColumn(newType)

		if len(updates) > 0 {
			if err := tx.Model(entry).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		// Reverse then reapply: both columns are touched when the type
		// changed, one column gets a net delta when it did not.
		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
			Update(oldColumn, gorm.Expr(oldColumn+" - ?", oldAmount)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
			Update(newColumn, gorm.Expr(newColumn+" + ?", newAmount)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// DeleteManualEntry deletes a manual entry and decrements the matching
// project total. The amount read, the delete, and the total adjustment share
// one transaction; a delete that matches no row (already removed by a
// concurrent call) aborts without touching the total.
func (s *cashFlowService) DeleteManualEntry(userID, projectID, entryID uint) error {
	project, err := s.projectService.GetProjectByID(userID, projectID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		entry, err := getManualEntry(tx, project.ID, entryID)
		if err != nil {
			return err
		}

		column, err := totalColumn(entry.Type)
		if err != nil {
			return err
		}

		res := tx.Delete(entry)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrEntryNotFound
		}
		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
			Update(column, gorm.Expr(column+" - ?", entry.Amount)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// getManualEntry loads an entry scoped to a project and rejects
// auto-generated entries, which only the work item lifecycle may touch. It
// runs on the caller's handle so mutations can read inside their own
// transaction.
func getManualEntry(db *gorm.DB, projectID, entryID uint) (*models.CashFlowEntry, error) {
	var entry models.CashFlowEntry
	if err := db.Where("id = ? AND project_id = ?", entryID, projectID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEntryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if entry.IsAutoGenerated {
		return nil, apperrors.ErrEntryNotEditable
	}
	return &entry, nil
}

// verifyCategory checks that a cash flow category exists and belongs to the
// user. Foreign key failures surface here as invalid input, not as internal
// errors.
func (s *cashFlowService) verifyCategory(userID, categoryID uint) error {
	var count int64
	if err := s.db.Model(&models.CashFlowCategory{}).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "cash flow category not found")
	}
	return nil
}
