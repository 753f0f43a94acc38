package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/pagination"
)

// projectService handles project-related business logic.
type projectService struct {
	db *gorm.DB
}

// NewProjectService creates a new ProjectServicer.
func NewProjectService(db *gorm.DB) ProjectServicer {
	return &projectService{db: db}
}

// CreateProject creates a new project with zero totals.
func (s *projectService) CreateProject(userID uint, name, description string) (*models.Project, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "project name is required")
	}

	project := &models.Project{
		UserID:      userID,
		Name:        name,
		Description: description,
	}

	if err := s.db.Create(project).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return project, nil
}

// GetUserProjects retrieves a paginated list of projects for a user.
// Archived projects are excluded unless includeArchived is set.
func (s *projectService) GetUserProjects(userID uint, page pagination.PageRequest, includeArchived bool) (*pagination.PageResponse[models.Project], error) {
	page.Defaults()

	base := s.db.Model(&models.Project{}).Where("user_id = ?", userID)
	if !includeArchived {
		base = base.Where("is_archived = ?", false)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var projects []models.Project
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(projects, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetProjectByID retrieves a project by ID for a specific user.
// A project that exists but belongs to another user is reported as not found.
func (s *projectService) GetProjectByID(userID, projectID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &project, nil
}

// GetFullProject retrieves a project with its work items (components in apply
// order), and cash flow entries ordered by date. This is the read contract
// every external consumer depends on.
func (s *projectService) GetFullProject(userID, projectID uint) (*models.Project, error) {
	var project models.Project
	err := s.db.
		Preload("WorkItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC, id ASC")
		}).
		Preload("WorkItems.Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("CashFlowEntries", func(db *gorm.DB) *gorm.DB {
			return db.Order("entry_date DESC, id DESC")
		}).
		Preload("CashFlowEntries.Category").
		Where("id = ? AND user_id = ?", projectID, userID).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &project, nil
}

// UpdateProject updates a project's name and description.
func (s *projectService) UpdateProject(userID, projectID uint, name, description string) (*models.Project, error) {
	project, err := s.GetProjectByID(userID, projectID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}

	if len(updates) > 0 {
		if err := s.db.Model(project).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return project, nil
}

// SetArchived flips the archived flag on a project.
func (s *projectService) SetArchived(userID, projectID uint, archived bool) (*models.Project, error) {
	project, err := s.GetProjectByID(userID, projectID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(project).Update("is_archived", archived).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	project.IsArchived = archived
	return project, nil
}

// DeleteProject deletes a project with all of its work items, component
// snapshots, and cash flow entries in one transaction.
func (s *projectService) DeleteProject(userID, projectID uint) error {
	project, err := s.GetProjectByID(userID, projectID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var itemIDs []uint
		if err := tx.Model(&models.ProjectWorkItem{}).
			Where("project_id = ?", project.ID).
			Pluck("id", &itemIDs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if len(itemIDs) > 0 {
			if err := tx.Where("work_item_id IN ?", itemIDs).
				Delete(&models.WorkItemComponent{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if err := tx.Where("project_id = ?", project.ID).
			Delete(&models.ProjectWorkItem{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("project_id = ?", project.ID).
			Delete(&models.CashFlowEntry{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(project).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// RecomputeTotals recomputes a project's totals from its children. The
// incrementally maintained columns are a cache; this is the source of truth
// for detecting drift in reconciliation and tests.
func (s *projectService) RecomputeTotals(userID, projectID uint) (*ProjectTotals, error) {
	project, err := s.GetProjectByID(userID, projectID)
	if err != nil {
		return nil, err
	}

	totals := &ProjectTotals{}

	if err := s.db.Model(&models.ProjectWorkItem{}).
		Where("project_id = ?", project.ID).
		Select("COALESCE(SUM(total_cost_snapshot), 0)").
		Scan(&totals.TotalCalculatedBudget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&models.CashFlowEntry{}).
		Where("project_id = ? AND type = ?", project.ID, models.CashFlowTypeIncome).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totals.ActualIncome).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&models.CashFlowEntry{}).
		Where("project_id = ? AND type = ?", project.ID, models.CashFlowTypeExpense).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totals.ActualExpenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return totals, nil
}
