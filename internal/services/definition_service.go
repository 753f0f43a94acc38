package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/pagination"
)

// definitionService handles work item definitions: reusable recipes of priced
// components. Definitions are a read source for ApplyTemplate; deleting or
// editing one never touches snapshots already applied to projects.
type definitionService struct {
	db *gorm.DB
}

// NewDefinitionService creates a new DefinitionServicer.
func NewDefinitionService(db *gorm.DB) DefinitionServicer {
	return &definitionService{db: db}
}

func validateDefinitionInput(in DefinitionInput) error {
	if in.Key == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "definition key is required")
	}
	if in.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "definition name is required")
	}
	for _, c := range in.Components {
		if c.DisplayName == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "component display name is required")
		}
		if c.MaterialPriceID == 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "component material price is required")
		}
	}
	return nil
}

// verifyComponentPrices checks all referenced material prices belong to the user.
func (s *definitionService) verifyComponentPrices(userID uint, components []DefinitionComponentInput) error {
	if len(components) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(components))
	for _, c := range components {
		ids = append(ids, c.MaterialPriceID)
	}
	var count int64
	if err := s.db.Model(&models.MaterialPrice{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Distinct("id").
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	distinct := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		distinct[id] = struct{}{}
	}
	if count != int64(len(distinct)) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "component references a material price that does not exist")
	}
	return nil
}

// CreateDefinition creates a definition with its ordered components atomically.
func (s *definitionService) CreateDefinition(userID uint, in DefinitionInput) (*models.WorkItemDefinition, error) {
	if err := validateDefinitionInput(in); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.WorkItemDefinition{}).
		Where("user_id = ? AND key = ?", userID, in.Key).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateKey
	}

	if err := s.verifyComponentPrices(userID, in.Components); err != nil {
		return nil, err
	}

	def := &models.WorkItemDefinition{
		UserID:            userID,
		Key:               in.Key,
		Name:              in.Name,
		CategoryID:        in.CategoryID,
		PrimaryInputLabel: in.PrimaryInputLabel,
	}
	for i, c := range in.Components {
		def.Components = append(def.Components, models.DefinitionComponent{
			DisplayName:     c.DisplayName,
			MaterialPriceID: c.MaterialPriceID,
			Type:            c.Type,
			Coefficient:     c.Coefficient,
			SortOrder:       i,
		})
	}

	if err := s.db.Create(def).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetDefinitionByKey(userID, def.Key)
}

// GetUserDefinitions retrieves a paginated list of definitions with components.
func (s *definitionService) GetUserDefinitions(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.WorkItemDefinition], error) {
	page.Defaults()

	base := s.db.Model(&models.WorkItemDefinition{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var defs []models.WorkItemDefinition
	if err := base.
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Components.MaterialPrice.Unit").
		Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("name ASC").
		Find(&defs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(defs, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetDefinitionByKey retrieves a definition by key with components and their
// current catalog prices hydrated. This is the read contract ApplyTemplate
// resolves against.
func (s *definitionService) GetDefinitionByKey(userID uint, key string) (*models.WorkItemDefinition, error) {
	var def models.WorkItemDefinition
	err := s.db.
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Components.MaterialPrice.Unit").
		Preload("Category").
		Where("user_id = ? AND key = ?", userID, key).
		First(&def).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDefinitionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &def, nil
}

// UpdateDefinition replaces a definition's fields and components atomically.
func (s *definitionService) UpdateDefinition(userID, definitionID uint, in DefinitionInput) (*models.WorkItemDefinition, error) {
	if err := validateDefinitionInput(in); err != nil {
		return nil, err
	}

	var def models.WorkItemDefinition
	if err := s.db.Where("id = ? AND user_id = ?", definitionID, userID).First(&def).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDefinitionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if in.Key != def.Key {
		var count int64
		if err := s.db.Model(&models.WorkItemDefinition{}).
			Where("user_id = ? AND key = ? AND id <> ?", userID, in.Key, definitionID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateKey
		}
	}

	if err := s.verifyComponentPrices(userID, in.Components); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&def).Updates(map[string]interface{}{
			"key":                 in.Key,
			"name":                in.Name,
			"category_id":         in.CategoryID,
			"primary_input_label": in.PrimaryInputLabel,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Where("definition_id = ?", def.ID).
			Delete(&models.DefinitionComponent{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for i, c := range in.Components {
			component := models.DefinitionComponent{
				DefinitionID:    def.ID,
				DisplayName:     c.DisplayName,
				MaterialPriceID: c.MaterialPriceID,
				Type:            c.Type,
				Coefficient:     c.Coefficient,
				SortOrder:       i,
			}
			if err := tx.Create(&component).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetDefinitionByKey(userID, in.Key)
}

// DeleteDefinition deletes a definition and its components. Applied snapshots
// keep their copied values and dangling definition ids for traceability.
func (s *definitionService) DeleteDefinition(userID, definitionID uint) error {
	var def models.WorkItemDefinition
	if err := s.db.Where("id = ? AND user_id = ?", definitionID, userID).First(&def).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrDefinitionNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("definition_id = ?", def.ID).
			Delete(&models.DefinitionComponent{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&def).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
